package transform

import (
	"net/url"
	"strings"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
)

// UTM query parameters read from page URLs
const (
	paramUTMSource   = "utm_source"
	paramUTMMedium   = "utm_medium"
	paramUTMCampaign = "utm_campaign"
)

// UTM holds the campaign parameters of a page URL; absent parameters are nil
type UTM struct {
	Source   *string
	Medium   *string
	Campaign *string
}

// ExtractUTM reads utm_source, utm_medium and utm_campaign from the query of pageURL.
// A URL whose path or query does not parse yields no parameters. Empty values count as absent.
func ExtractUTM(pageURL string) UTM {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return UTM{}
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return UTM{}
	}

	return UTM{
		Source:   firstValue(query, paramUTMSource),
		Medium:   firstValue(query, paramUTMMedium),
		Campaign: firstValue(query, paramUTMCampaign),
	}
}

func firstValue(query url.Values, key string) *string {
	for _, v := range query[key] {
		if v != "" {
			return models.StringPtr(v)
		}
	}
	return nil
}
