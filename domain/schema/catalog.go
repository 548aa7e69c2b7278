package schema

import (
	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
)

// Domain identifies one of the built-in analysis pipelines a dataset can
// be mapped for.
type Domain string

const (
	DomainEcommerce Domain = "ecommerce"
	DomainReview    Domain = "review"
	DomainSales     Domain = "sales"
)

// TypeTag is the coarse semantic category of a column's values.
type TypeTag string

const (
	TypeID      TypeTag = "id"
	TypeDate    TypeTag = "date"
	TypeNumeric TypeTag = "numeric"
	TypeRating  TypeTag = "rating"
	TypeText    TypeTag = "text"
)

// TypeTags lists every semantic type in a fixed order.
var TypeTags = []TypeTag{TypeID, TypeDate, TypeNumeric, TypeRating, TypeText}

// Field is one standard column role in a catalog: the canonical name, the
// accepted raw-name aliases (case- and punctuation-insensitive, including
// Korean terms), the expected semantic type, and whether downstream
// analysis can proceed without it.
type Field struct {
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases"`
	Type     TypeTag  `json:"type"`
	Required bool     `json:"required"`
}

// Catalog is the immutable field table for one domain. Catalogs are plain
// values; adding a domain means declaring another Catalog, not touching
// the resolver.
type Catalog struct {
	Domain Domain  `json:"domain"`
	Fields []Field `json:"fields"`
}

// Standard field tables for the three built-in domains. Alias lists carry
// the naming variants seen in real uploads, English and Korean.
var (
	ecommerceCatalog = Catalog{
		Domain: DomainEcommerce,
		Fields: []Field{
			{
				Name:     "customerid",
				Aliases:  []string{"customerid", "customer_id", "customer", "cust_id", "user_id", "userid", "고객ID", "고객아이디", "회원ID"},
				Type:     TypeID,
				Required: true,
			},
			{
				Name:     "invoicedate",
				Aliases:  []string{"invoicedate", "invoice_date", "date", "order_date", "orderdate", "purchase_date", "주문일", "구매일", "날짜"},
				Type:     TypeDate,
				Required: true,
			},
			{
				Name:     "quantity",
				Aliases:  []string{"quantity", "qty", "amount", "count", "수량", "개수"},
				Type:     TypeNumeric,
				Required: true,
			},
			{
				Name:     "unitprice",
				Aliases:  []string{"unitprice", "unit_price", "price", "amount", "가격", "단가", "금액"},
				Type:     TypeNumeric,
				Required: true,
			},
		},
	}

	reviewCatalog = Catalog{
		Domain: DomainReview,
		Fields: []Field{
			{
				Name:     "review_text",
				Aliases:  []string{"review", "text", "comment", "review_text", "content", "리뷰", "내용", "댓글", "평가"},
				Type:     TypeText,
				Required: true,
			},
			{
				Name:     "rating",
				Aliases:  []string{"rating", "score", "star", "point", "평점", "별점", "점수"},
				Type:     TypeRating,
				Required: false,
			},
			{
				Name:     "date",
				Aliases:  []string{"date", "review_date", "created_at", "날짜", "작성일"},
				Type:     TypeDate,
				Required: false,
			},
		},
	}

	salesCatalog = Catalog{
		Domain: DomainSales,
		Fields: []Field{
			{
				Name:     "date",
				Aliases:  []string{"date", "sales_date", "order_date", "invoicedate", "날짜", "판매일", "주문일"},
				Type:     TypeDate,
				Required: true,
			},
			{
				Name:     "product",
				Aliases:  []string{"product", "product_name", "item", "description", "상품", "제품", "상품명"},
				Type:     TypeText,
				Required: true,
			},
			{
				Name:     "quantity",
				Aliases:  []string{"quantity", "qty", "amount", "수량", "개수"},
				Type:     TypeNumeric,
				Required: true,
			},
			{
				Name:     "price",
				Aliases:  []string{"price", "unitprice", "unit_price", "amount", "가격", "단가"},
				Type:     TypeNumeric,
				Required: true,
			},
		},
	}

	catalogs = map[Domain]Catalog{
		DomainEcommerce: ecommerceCatalog,
		DomainReview:    reviewCatalog,
		DomainSales:     salesCatalog,
	}
)

// Domains lists the supported domains in a fixed order.
func Domains() []Domain {
	return []Domain{DomainEcommerce, DomainReview, DomainSales}
}

// DomainNames lists the supported domain names, for error messages and
// the API surface.
func DomainNames() []string {
	domains := Domains()
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = string(d)
	}
	return names
}

// CatalogFor returns the field table for a domain. An unknown domain is a
// programmer error and fails fast, enumerating the valid names. It never
// silently defaults to a domain.
func CatalogFor(domain Domain) (Catalog, error) {
	cat, ok := catalogs[domain]
	if !ok {
		return Catalog{}, core.NewUnknownDomainError(string(domain), DomainNames())
	}
	return cat, nil
}

// Field looks up a standard field by name.
func (c Catalog) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFields returns the names of all required fields, in catalog
// order.
func (c Catalog) RequiredFields() []string {
	var required []string
	for _, f := range c.Fields {
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return required
}
