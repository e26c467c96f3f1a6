package resource

import (
	"github.com/mahabub-bd/purepac-admin/internal/catalog"
)

// SKUPrefix starts every generated product SKU.
const SKUPrefix = "PP"

var (
	brandsRef     = &Reference{Endpoint: "brands", ValueField: "id", LabelField: "name"}
	categoriesRef = &Reference{Endpoint: "categories", ValueField: "id", LabelField: "name"}
	suppliersRef  = &Reference{Endpoint: "suppliers", ValueField: "id", LabelField: "name"}
	productsRef   = &Reference{Endpoint: "products", ValueField: "id", LabelField: "name"}
	rolesRef      = &Reference{Endpoint: "roles", ValueField: "id", LabelField: "rolename"}
	menusRef      = &Reference{Endpoint: "menus", ValueField: "id", LabelField: "name"}

	activeFilter = Filter{Name: "isActive", Label: "Status", Options: []Option{
		{Value: "true", Label: "Active"},
		{Value: "false", Label: "Inactive"},
	}}

	discountTypeOptions = []Option{
		{Value: catalog.DiscountPercentage, Label: "Percentage"},
		{Value: catalog.DiscountFixed, Label: "Fixed amount"},
	}

	orderStatusOptions = []Option{
		{Value: "Pending", Label: "Pending"},
		{Value: "Processing", Label: "Processing"},
		{Value: "Shipped", Label: "Shipped"},
		{Value: "Delivered", Label: "Delivered"},
		{Value: "Cancelled", Label: "Cancelled"},
	}

	paymentStatusOptions = []Option{
		{Value: "Paid", Label: "Paid"},
		{Value: "Unpaid", Label: "Unpaid"},
		{Value: "Refunded", Label: "Refunded"},
	}

	purchaseStatusOptions = []Option{
		{Value: "Pending", Label: "Pending"},
		{Value: "Received", Label: "Received"},
		{Value: "Cancelled", Label: "Cancelled"},
	}

	bannerPositionOptions = []Option{
		{Value: "home", Label: "Home slider"},
		{Value: "top", Label: "Top strip"},
		{Value: "sidebar", Label: "Sidebar"},
	}

	productDiscount = &DiscountPaths{
		Type:  "discountType",
		Value: "discountValue",
		Start: "discountStartDate",
		End:   "discountEndDate",
	}
	windowDiscount = &DiscountPaths{
		Type:  "discountType",
		Value: "discountValue",
		Start: "startDate",
		End:   "endDate",
	}
)

func activeField() Field {
	return Field{Name: "isActive", Label: "Active", Type: FieldCheckbox}
}

func imageField(label, rules string) Field {
	return Field{Name: "image", Label: label, Type: FieldFile, Rules: rules, ForeignKey: "attachmentId"}
}

// Catalog returns the definitions of every admin resource in menu order.
func Catalog() []Definition {
	return []Definition{
		{
			Key: "products", Title: "Products", Singular: "product", Endpoint: "products",
			Columns: []Column{
				{Label: "", Path: "attachment.url", Kind: KindImage},
				{Label: "Name", Path: "name", Kind: KindText},
				{Label: "SKU", Path: "sku", Kind: KindText},
				{Label: "Brand", Path: "brand.name", Kind: KindText},
				{Label: "Category", Path: "category.name", Kind: KindText},
				{Label: "Price", Path: "sellingPrice", Kind: KindDiscountPrice, Discount: productDiscount},
				{Label: "Discount", Kind: KindDiscountWindow, Discount: productDiscount},
				{Label: "Stock", Path: "stock", Kind: KindText},
				{Label: "Active", Path: "isActive", Kind: KindBool},
			},
			Filters: []Filter{
				{Name: "brandId", Label: "Brand", Reference: brandsRef},
				{Name: "categoryId", Label: "Category", Reference: categoriesRef},
				activeFilter,
				{Name: "isFeatured", Label: "Featured", Options: []Option{
					{Value: "true", Label: "Featured"},
					{Value: "false", Label: "Not featured"},
				}},
			},
			Fields: []Field{
				{Name: "name", Label: "Name", Type: FieldText, Rules: "required,min=2,max=120"},
				{Name: "sku", Label: "SKU", Type: FieldText, Rules: "omitempty,sku,max=40", Help: "Leave empty to generate one."},
				{Name: "description", Label: "Description", Type: FieldTextarea, Rules: "omitempty,max=2000"},
				{Name: "brandId", Label: "Brand", Type: FieldSelect, Rules: "required", Reference: brandsRef, Path: "brand.id"},
				{Name: "categoryId", Label: "Category", Type: FieldSelect, Rules: "required", Reference: categoriesRef, Path: "category.id"},
				{Name: "purchasePrice", Label: "Purchase price", Type: FieldNumber, Rules: "omitempty,gte=0"},
				{Name: "sellingPrice", Label: "Selling price", Type: FieldNumber, Rules: "required,gt=0"},
				{Name: "stock", Label: "Stock", Type: FieldNumber, Rules: "omitempty,gte=0"},
				{Name: "discountType", Label: "Discount type", Type: FieldSelect, Rules: "omitempty,oneof=PERCENTAGE FIXED", Options: discountTypeOptions},
				{Name: "discountValue", Label: "Discount value", Type: FieldNumber, Rules: "omitempty,gte=0"},
				{Name: "discountStartDate", Label: "Discount starts", Type: FieldDate},
				{Name: "discountEndDate", Label: "Discount ends", Type: FieldDate},
				{Name: "isFeatured", Label: "Featured", Type: FieldCheckbox},
				activeField(),
				imageField("Image", "required"),
			},
			Check:     DiscountCheck("discountType", "discountValue", "discountStartDate", "discountEndDate", true),
			Prepare:   prepareProduct,
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "categories", Title: "Categories", Singular: "category", Endpoint: "categories",
			Columns: []Column{
				{Label: "", Path: "attachment.url", Kind: KindImage},
				{Label: "Name", Path: "name", Kind: KindText},
				{Label: "Slug", Path: "slug", Kind: KindText},
				{Label: "Parent", Path: "parentCategory.name", Kind: KindText},
				{Label: "Active", Path: "isActive", Kind: KindBool},
			},
			Filters: []Filter{activeFilter},
			Fields: []Field{
				{Name: "name", Label: "Name", Type: FieldText, Rules: "required,min=2,max=80"},
				{Name: "slug", Label: "Slug", Type: FieldText, Rules: "required,slug,max=80"},
				{Name: "parentId", Label: "Parent category", Type: FieldSelect, Reference: categoriesRef, Path: "parentCategory.id"},
				activeField(),
				imageField("Image", ""),
			},
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "brands", Title: "Brands", Singular: "brand", Endpoint: "brands",
			Columns: []Column{
				{Label: "", Path: "attachment.url", Kind: KindImage},
				{Label: "Name", Path: "name", Kind: KindText},
				{Label: "Slug", Path: "slug", Kind: KindText},
				{Label: "Active", Path: "isActive", Kind: KindBool},
			},
			Filters: []Filter{activeFilter},
			Fields: []Field{
				{Name: "name", Label: "Name", Type: FieldText, Rules: "required,min=2,max=80"},
				{Name: "slug", Label: "Slug", Type: FieldText, Rules: "required,slug,max=80"},
				activeField(),
				imageField("Logo", ""),
			},
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "banners", Title: "Banners", Singular: "banner", Endpoint: "banners",
			Columns: []Column{
				{Label: "", Path: "attachment.url", Kind: KindImage},
				{Label: "Title", Path: "title", Kind: KindText},
				{Label: "Position", Path: "position", Kind: KindBadge},
				{Label: "Link", Path: "targetUrl", Kind: KindText},
				{Label: "Active", Path: "isActive", Kind: KindBool},
			},
			Filters: []Filter{
				{Name: "position", Label: "Position", Options: bannerPositionOptions},
				activeFilter,
			},
			Fields: []Field{
				{Name: "title", Label: "Title", Type: FieldText, Rules: "required,max=120"},
				{Name: "description", Label: "Description", Type: FieldTextarea, Rules: "omitempty,max=500"},
				{Name: "targetUrl", Label: "Link", Type: FieldText, Rules: "omitempty,url"},
				{Name: "position", Label: "Position", Type: FieldSelect, Rules: "required", Options: bannerPositionOptions},
				activeField(),
				imageField("Image", "required"),
			},
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "coupons", Title: "Coupons", Singular: "coupon", Endpoint: "coupons",
			Columns: []Column{
				{Label: "Code", Path: "code", Kind: KindText},
				{Label: "Type", Path: "discountType", Kind: KindBadge},
				{Label: "Value", Path: "discountValue", Kind: KindText},
				{Label: "Min. order", Path: "minOrderAmount", Kind: KindMoney},
				{Label: "Used", Path: "usedCount", Kind: KindText},
				{Label: "Window", Kind: KindDiscountWindow, Discount: windowDiscount},
				{Label: "Active", Path: "isActive", Kind: KindBool},
			},
			Filters: []Filter{
				{Name: "discountType", Label: "Type", Options: discountTypeOptions},
				activeFilter,
			},
			Fields: []Field{
				{Name: "code", Label: "Code", Type: FieldText, Rules: "required,alphanum,min=3,max=20"},
				{Name: "discountType", Label: "Type", Type: FieldSelect, Rules: "required", Options: discountTypeOptions},
				{Name: "discountValue", Label: "Value", Type: FieldNumber, Rules: "required"},
				{Name: "minOrderAmount", Label: "Minimum order", Type: FieldNumber, Rules: "omitempty,gte=0"},
				{Name: "maxUsage", Label: "Usage limit", Type: FieldNumber, Rules: "omitempty,gte=1"},
				{Name: "startDate", Label: "Starts", Type: FieldDate, Rules: "required"},
				{Name: "endDate", Label: "Ends", Type: FieldDate, Rules: "required"},
				activeField(),
			},
			Check:     DiscountCheck("discountType", "discountValue", "startDate", "endDate", false),
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "discounts", Title: "Discounts", Singular: "discount", Endpoint: "discounts",
			Columns: []Column{
				{Label: "Product", Path: "product.name", Kind: KindText},
				{Label: "Type", Path: "discountType", Kind: KindBadge},
				{Label: "Value", Path: "discountValue", Kind: KindText},
				{Label: "Price", Path: "product.sellingPrice", Kind: KindDiscountPrice, Discount: windowDiscount},
				{Label: "Window", Kind: KindDiscountWindow, Discount: windowDiscount},
				{Label: "Active", Path: "isActive", Kind: KindBool},
			},
			Filters: []Filter{
				{Name: "discountType", Label: "Type", Options: discountTypeOptions},
				activeFilter,
			},
			Fields: []Field{
				{Name: "productId", Label: "Product", Type: FieldSelect, Rules: "required", Reference: productsRef, Path: "product.id"},
				{Name: "discountType", Label: "Type", Type: FieldSelect, Rules: "required", Options: discountTypeOptions},
				{Name: "discountValue", Label: "Value", Type: FieldNumber, Rules: "required"},
				{Name: "startDate", Label: "Starts", Type: FieldDate, Rules: "required"},
				{Name: "endDate", Label: "Ends", Type: FieldDate, Rules: "required"},
				activeField(),
			},
			Check:     DiscountCheck("discountType", "discountValue", "startDate", "endDate", false),
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "orders", Title: "Orders", Singular: "order", Endpoint: "orders",
			Columns: []Column{
				{Label: "Order", Path: "orderNo", Kind: KindText},
				{Label: "Customer", Path: "user.name", Kind: KindText},
				{Label: "Total", Path: "totalValue", Kind: KindMoney},
				{Label: "Payment", Path: "paymentStatus", Kind: KindBadge},
				{Label: "Status", Path: "orderStatus", Kind: KindBadge},
				{Label: "Placed", Path: "createdAt", Kind: KindDate},
			},
			Filters: []Filter{
				{Name: "orderStatus", Label: "Status", Options: orderStatusOptions},
				{Name: "paymentStatus", Label: "Payment", Options: paymentStatusOptions},
			},
			Fields: []Field{
				{Name: "orderStatus", Label: "Status", Type: FieldSelect, Rules: "required", Options: orderStatusOptions},
				{Name: "paymentStatus", Label: "Payment", Type: FieldSelect, Rules: "required", Options: paymentStatusOptions},
				{Name: "note", Label: "Internal note", Type: FieldTextarea, Rules: "omitempty,max=500"},
			},
			CanEdit: true,
		},
		{
			Key: "purchases", Title: "Purchases", Singular: "purchase", Endpoint: "purchases",
			Columns: []Column{
				{Label: "Purchase", Path: "purchaseNumber", Kind: KindText},
				{Label: "Supplier", Path: "supplier.name", Kind: KindText},
				{Label: "Product", Path: "product.name", Kind: KindText},
				{Label: "Qty", Path: "quantity", Kind: KindText},
				{Label: "Total", Path: "totalValue", Kind: KindMoney},
				{Label: "Status", Path: "status", Kind: KindBadge},
				{Label: "Date", Path: "purchaseDate", Kind: KindDate},
			},
			Filters: []Filter{
				{Name: "status", Label: "Status", Options: purchaseStatusOptions},
				{Name: "supplierId", Label: "Supplier", Reference: suppliersRef},
			},
			Fields: []Field{
				{Name: "supplierId", Label: "Supplier", Type: FieldSelect, Rules: "required", Reference: suppliersRef, Path: "supplier.id"},
				{Name: "productId", Label: "Product", Type: FieldSelect, Rules: "required", Reference: productsRef, Path: "product.id"},
				{Name: "quantity", Label: "Quantity", Type: FieldNumber, Rules: "required,gte=1"},
				{Name: "purchasePrice", Label: "Unit price", Type: FieldNumber, Rules: "required,gt=0"},
				{Name: "purchaseDate", Label: "Date", Type: FieldDate, Rules: "required"},
				{Name: "status", Label: "Status", Type: FieldSelect, Rules: "required", Options: purchaseStatusOptions},
			},
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "suppliers", Title: "Suppliers", Singular: "supplier", Endpoint: "suppliers",
			Columns: []Column{
				{Label: "Name", Path: "name", Kind: KindText},
				{Label: "Contact", Path: "contactPerson", Kind: KindText},
				{Label: "Phone", Path: "phone", Kind: KindText},
				{Label: "Email", Path: "email", Kind: KindText},
				{Label: "Active", Path: "isActive", Kind: KindBool},
			},
			Filters: []Filter{activeFilter},
			Fields: []Field{
				{Name: "name", Label: "Name", Type: FieldText, Rules: "required,min=2,max=120"},
				{Name: "contactPerson", Label: "Contact person", Type: FieldText, Rules: "omitempty,max=80"},
				{Name: "phone", Label: "Phone", Type: FieldTel, Rules: "required,bdmobile"},
				{Name: "email", Label: "Email", Type: FieldEmail, Rules: "omitempty,email"},
				{Name: "address", Label: "Address", Type: FieldTextarea, Rules: "omitempty,max=300"},
				activeField(),
			},
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "menus", Title: "Menus", Singular: "menu", Endpoint: "menus",
			Columns: []Column{
				{Label: "Name", Path: "name", Kind: KindText},
				{Label: "Path", Path: "url", Kind: KindText},
				{Label: "Parent", Path: "parent.name", Kind: KindText},
				{Label: "Order", Path: "position", Kind: KindText},
				{Label: "Active", Path: "isActive", Kind: KindBool},
			},
			Filters: []Filter{activeFilter},
			Fields: []Field{
				{Name: "name", Label: "Name", Type: FieldText, Rules: "required,max=60"},
				{Name: "url", Label: "Path", Type: FieldText, Rules: "required,startswith=/,max=200"},
				{Name: "parentId", Label: "Parent menu", Type: FieldSelect, Reference: menusRef, Path: "parent.id"},
				{Name: "position", Label: "Order", Type: FieldNumber, Rules: "omitempty,gte=0"},
				activeField(),
			},
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "users", Title: "Users", Singular: "user", Endpoint: "users",
			Columns: []Column{
				{Label: "", Path: "profilePhoto.url", Kind: KindImage},
				{Label: "Name", Path: "name", Kind: KindText},
				{Label: "Email", Path: "email", Kind: KindText},
				{Label: "Mobile", Path: "mobileNumber", Kind: KindText},
				{Label: "Role", Path: "role.rolename", Kind: KindBadge},
				{Label: "Verified", Path: "isVerified", Kind: KindBool},
				{Label: "Joined", Path: "createdAt", Kind: KindDate},
			},
			Filters: []Filter{
				{Name: "roleId", Label: "Role", Reference: rolesRef},
				{Name: "isVerified", Label: "Verified", Options: []Option{
					{Value: "true", Label: "Verified"},
					{Value: "false", Label: "Unverified"},
				}},
			},
			Fields: []Field{
				{Name: "name", Label: "Name", Type: FieldText, Rules: "required,min=2,max=80"},
				{Name: "email", Label: "Email", Type: FieldEmail, Rules: "required,email"},
				{Name: "mobileNumber", Label: "Mobile", Type: FieldTel, Rules: "required,bdmobile"},
				{Name: "password", Label: "Password", Type: FieldPassword, Rules: "required,min=8,max=64", CreateOnly: true},
				{Name: "roleId", Label: "Role", Type: FieldSelect, Rules: "required", Reference: rolesRef, Path: "role.id"},
				{Name: "isVerified", Label: "Verified", Type: FieldCheckbox},
				{Name: "photo", Label: "Photo", Type: FieldFile, ForeignKey: "profilePhotoId"},
			},
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "roles", Title: "Roles", Singular: "role", Endpoint: "roles",
			Columns: []Column{
				{Label: "Role", Path: "rolename", Kind: KindBadge},
				{Label: "Description", Path: "description", Kind: KindText},
			},
			Fields: []Field{
				{Name: "rolename", Label: "Role", Type: FieldText, Rules: "required,min=3,max=40"},
				{Name: "description", Label: "Description", Type: FieldTextarea, Rules: "omitempty,max=300"},
			},
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "shipping-methods", Title: "Shipping methods", Singular: "shipping method", Endpoint: "shipping-methods",
			Columns: []Column{
				{Label: "Name", Path: "name", Kind: KindText},
				{Label: "Cost", Path: "cost", Kind: KindMoney},
				{Label: "Delivery time", Path: "deliveryTime", Kind: KindText},
				{Label: "Active", Path: "isActive", Kind: KindBool},
			},
			Filters: []Filter{activeFilter},
			Fields: []Field{
				{Name: "name", Label: "Name", Type: FieldText, Rules: "required,max=80"},
				{Name: "cost", Label: "Cost", Type: FieldNumber, Rules: "required,gte=0"},
				{Name: "deliveryTime", Label: "Delivery time", Type: FieldText, Rules: "omitempty,max=60", Help: "For example: 2-3 days."},
				activeField(),
			},
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "payment-methods", Title: "Payment methods", Singular: "payment method", Endpoint: "payment-methods",
			Columns: []Column{
				{Label: "", Path: "attachment.url", Kind: KindImage},
				{Label: "Name", Path: "name", Kind: KindText},
				{Label: "Description", Path: "description", Kind: KindText},
				{Label: "Active", Path: "isActive", Kind: KindBool},
			},
			Filters: []Filter{activeFilter},
			Fields: []Field{
				{Name: "name", Label: "Name", Type: FieldText, Rules: "required,max=80"},
				{Name: "description", Label: "Description", Type: FieldTextarea, Rules: "omitempty,max=300"},
				activeField(),
				imageField("Logo", ""),
			},
			CanCreate: true, CanEdit: true, CanDelete: true,
		},
		{
			Key: "subscribers", Title: "Subscribers", Singular: "subscriber", Endpoint: "subscribers",
			Columns: []Column{
				{Label: "Email", Path: "email", Kind: KindText},
				{Label: "Subscribed", Path: "isActive", Kind: KindBool},
				{Label: "Since", Path: "createdAt", Kind: KindDate},
			},
			Filters:   []Filter{activeFilter},
			CanDelete: true,
		},
	}
}

// Default returns the registry of every admin resource.
func Default() *Registry {
	r, err := NewRegistry(Catalog()...)
	if err != nil {
		panic(err)
	}
	return r
}

func prepareProduct(payload map[string]any, creating bool) {
	if !creating {
		return
	}
	if sku, _ := payload["sku"].(string); sku == "" {
		name, _ := payload["name"].(string)
		payload["sku"] = catalog.GenerateSKU(SKUPrefix, name)
	}
}
