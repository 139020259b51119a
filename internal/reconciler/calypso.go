package reconciler

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fxops/confirmhub/internal/types"
)

var calypsoFileRe = regexp.MustCompile(`_uplink_resp\.xml$`)

// calypsoResponse is the single-file Calypso uplink answer.
type calypsoResponse struct {
	XMLName          xml.Name `xml:"CalypsoUplinkResponse"`
	Status           string   `xml:"status,attr"`
	TradeRef         string   `xml:"TradeRef"`
	CalypsoID        string   `xml:"CalypsoId"`
	ErrorDescription []string `xml:"Errors>Error"`
}

// CalypsoParser decodes Calypso uplink response files. Unlike MX3 the whole
// answer is one document.
type CalypsoParser struct{}

func NewCalypsoParser() *CalypsoParser {
	return &CalypsoParser{}
}

func (p *CalypsoParser) System() types.SystemCode {
	return types.SystemCalypso
}

func (p *CalypsoParser) Matches(filename string) bool {
	return calypsoFileRe.MatchString(filename)
}

func calypsoSpellings(product types.ProductType) []string {
	switch product {
	case types.ProductSpot:
		return []string{"FXSpot", "SPOT"}
	case types.ProductForward:
		return []string{"FXForward", "FWD"}
	case types.ProductSwap:
		return []string{"FXSwap", "SWAP"}
	case types.ProductNdf:
		return []string{"FXNDF", "NDF"}
	case types.ProductOptionVanilla, types.ProductOptionNdo:
		return []string{"FXOption", "OPT"}
	default:
		return []string{string(product)}
	}
}

func (p *CalypsoParser) ExpectedPrefixes(trade *types.Trade) []string {
	var prefixes []string
	for _, spelling := range calypsoSpellings(trade.ProductType) {
		prefixes = append(prefixes, fmt.Sprintf("%s_%s_uplink", spelling, trade.TradeID))
	}
	return prefixes
}

func (p *CalypsoParser) Parse(dir, filename string) (*BookingResponse, error) {
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return nil, err
	}
	var resp calypsoResponse
	if err := xml.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}
	if resp.TradeRef == "" {
		return nil, fmt.Errorf("no trade reference in %s", filename)
	}

	return &BookingResponse{
		TradeID:       resp.TradeRef,
		Success:       strings.EqualFold(resp.Status, "SUCCESS"),
		SystemTradeID: resp.CalypsoID,
		ErrorText:     strings.Join(resp.ErrorDescription, "; "),
		Files:         []string{filename},
	}, nil
}
