package contenttype

// ContentType is an indexed document type with its relevance weight.
type ContentType struct {
	name   string
	weight float64
}

// Name returns the value stored in the type field.
func (c ContentType) Name() string { return c.name }

// Weight returns the function-score weight applied to documents of this type.
func (c ContentType) Weight() float64 { return c.weight }

// Known content types.
var (
	Bulletin                  = ContentType{name: "bulletin", weight: 1.55}
	Article                   = ContentType{name: "article", weight: 1.30}
	ArticleDownload           = ContentType{name: "article_download", weight: 1.30}
	CompendiumLandingPage     = ContentType{name: "compendium_landing_page", weight: 1.30}
	DatasetLandingPage        = ContentType{name: "dataset_landing_page", weight: 1.35}
	Timeseries                = ContentType{name: "timeseries", weight: 1.20}
	TimeseriesDataset         = ContentType{name: "timeseries_dataset", weight: 1.00}
	StaticMethodology         = ContentType{name: "static_methodology", weight: 1.00}
	StaticMethodologyDownload = ContentType{name: "static_methodology_download", weight: 1.00}
	StaticQMI                 = ContentType{name: "static_qmi", weight: 1.00}
	StaticAdhoc               = ContentType{name: "static_adhoc", weight: 1.00}
	ProductPage               = ContentType{name: "product_page", weight: 1.00}
	HomePageCensus            = ContentType{name: "home_page_census", weight: 1.00}
)

var all = []ContentType{
	Bulletin, Article, ArticleDownload, CompendiumLandingPage, DatasetLandingPage,
	Timeseries, TimeseriesDataset, StaticMethodology, StaticMethodologyDownload,
	StaticQMI, StaticAdhoc, ProductPage, HomePageCensus,
}

// All returns every content type searched by default.
func All() []ContentType {
	out := make([]ContentType, len(all))
	copy(out, all)
	return out
}

// Featured returns the content types eligible as a featured result.
func Featured() []ContentType {
	return []ContentType{ProductPage, HomePageCensus}
}

// Lookup resolves content types by name. Unknown names are reported in the second return value.
func Lookup(names []string) ([]ContentType, []string) {
	var (
		found   []ContentType
		unknown []string
	)
	for _, n := range names {
		matched := false
		for _, c := range all {
			if c.name == n {
				found = append(found, c)
				matched = true
				break
			}
		}
		if !matched {
			unknown = append(unknown, n)
		}
	}
	return found, unknown
}

// Names returns the type names of cs.
func Names(cs []ContentType) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.name
	}
	return out
}
