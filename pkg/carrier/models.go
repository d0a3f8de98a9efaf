package carrier

// WeightUnit represents the weight measurement unit of source data.
type WeightUnit string

const (
	WeightKG WeightUnit = "kg"
	WeightLB WeightUnit = "lb"
)

// DimensionUnit represents the dimension measurement unit of source data.
type DimensionUnit string

const (
	DimensionCM DimensionUnit = "cm"
	DimensionIN DimensionUnit = "in"
)

// LabelFormat represents the format of shipping labels.
type LabelFormat string

const (
	LabelPDF LabelFormat = "PDF"
	LabelPNG LabelFormat = "PNG"
)

// Config is the per-method carrier configuration. It is owned by the host
// application and read-only to carrier variants.
type Config struct {
	Username           string
	Password           string
	LabelFormat        LabelFormat
	WeightUnit         WeightUnit
	DimensionUnit      DimensionUnit
	DefaultPackageCode string // shipper code of the default package type
	InsurancePercent   float64
	CustomData         string // per-action overlay, JSON object keyed by action
	// AllowPartialRecipient relaxes the street requirement on the consignee,
	// for rating against a partial checkout address.
	AllowPartialRecipient bool
}

// Party is a partner-like record: the raw address material a variant
// normalizes into its provider schema.
type Party struct {
	Company     string
	Name        string
	Street      string
	Street2     string
	City        string
	RegionName  string
	RegionCode  string
	Zip         string
	CountryCode string
	CountryName string
	Phone       string
	Email       string
}

// Commodity is one customs line item inside a package.
type Commodity struct {
	Name       string
	Code       string
	Quantity   float64
	UnitWeight float64
}

// Package is a shippable package. The partition into packages is supplied by
// the host packaging service; variants only aggregate over it.
type Package struct {
	TypeCode    string
	Height      float64
	Length      float64
	Width       float64
	Weight      float64 // in the configured weight unit
	Value       float64
	Currency    string
	Commodities []Commodity
}

// LabelArtifact is a pre-rendered document attached to a shipment request.
type LabelArtifact struct {
	Data     []byte
	Filename string
}

// OrderLine is one order line, used by the validation gate and the declared
// value computation.
type OrderLine struct {
	ProductName string
	ProductCode string
	HSCode      string
	Quantity    float64
	UnitPrice   float64
	UnitWeight  float64
	OriginCode  string // country of manufacture
	IsDelivery  bool
	IsService   bool
	IsSection   bool // display-only line, carries no product
}

// OrderInfo carries the order-bound data a request needs.
type OrderInfo struct {
	Reference      string
	ClientOrderRef string
	Currency       string
	Lines          []OrderLine
}

// RateRequest asks for a shipping price. Destination may be a partial
// address: only country, zip and city are consulted. Origin is the
// warehouse address, checked by the validation gate.
type RateRequest struct {
	Config      Config
	Origin      Party
	Destination Party
	Packages    []Package
	Order       *OrderInfo
}

// RateResult is the outcome of a rate request. Exactly one of Price (with
// Success true) or ErrorMessage (with Success false) is meaningful.
type RateResult struct {
	Success        bool
	Price          float64
	ErrorMessage   string
	WarningMessage string
}

// ShipmentRequest creates a shipment or a return with the provider.
type ShipmentRequest struct {
	Config        Config
	Consignor     Party
	Consignee     Party
	Packages      []Package
	Reference     string
	Warehouse     string
	Label         *LabelArtifact
	Order         *OrderInfo
	InvoiceNumber string // export-declaration invoice, returns only
}

// ShipmentResult is the outcome of a successful shipment creation.
type ShipmentResult struct {
	TrackingNumber string
	ExactPrice     float64
	Label          []byte
}
