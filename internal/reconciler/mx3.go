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

// MX3 drops a file set per exported trade, sharing a base name: the "2"
// suffix file carries the answer status and the MX3 trade id, the optional
// "3" suffix file carries error/warning detail that must be merged in.
var mx3FileRe = regexp.MustCompile(`_evs_ans.*_([23])\.xml$`)

// mx3Response is the document inside both sub-files.
type mx3Response struct {
	XMLName        xml.Name     `xml:"MXResponse"`
	MXAnswerStatus string       `xml:"MXAnswerStatus,attr"`
	TradeRef       string       `xml:"TradeRef"`
	MXTradeID      string       `xml:"MXTradeId"`
	Messages       []mx3Message `xml:"Messages>Message"`
}

type mx3Message struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

// MX3Parser decodes MX3 answer file sets.
type MX3Parser struct{}

func NewMX3Parser() *MX3Parser {
	return &MX3Parser{}
}

func (p *MX3Parser) System() types.SystemCode {
	return types.SystemMX3
}

func (p *MX3Parser) Matches(filename string) bool {
	return mx3FileRe.MatchString(filename)
}

// mx3Spellings are the acceptable product-type spellings MX3 export names
// carry; both historic and current forms appear in the drop folder.
func mx3Spellings(product types.ProductType) []string {
	switch product {
	case types.ProductSpot:
		return []string{"SPOT", "Spot"}
	case types.ProductForward:
		return []string{"FWD", "Forward"}
	case types.ProductSwap:
		return []string{"SWAP", "Swap"}
	case types.ProductNdf:
		return []string{"NDF", "Ndf"}
	case types.ProductOptionVanilla:
		return []string{"OPT", "Option"}
	case types.ProductOptionNdo:
		return []string{"NDO", "OptionNdo"}
	default:
		return []string{string(product)}
	}
}

// MX3ExportName is the product spelling current MX3 export files carry,
// the first of the spellings ExpectedPrefixes accepts.
func MX3ExportName(product types.ProductType) string {
	return mx3Spellings(product)[0]
}

func (p *MX3Parser) ExpectedPrefixes(trade *types.Trade) []string {
	var prefixes []string
	for _, spelling := range mx3Spellings(trade.ProductType) {
		prefixes = append(prefixes, fmt.Sprintf("%s_%s_evs_ans", spelling, trade.TradeID))
	}
	return prefixes
}

// Parse locates the full file set sharing the base name of filename and
// interprets each sub-file independently: status from the "2" file,
// error/warning detail merged from the "3" file when present. The sub-files
// arrive in no guaranteed order; a detail file whose status file was already
// processed and archived yields a detail-only rejection response.
func (p *MX3Parser) Parse(dir, filename string) (*BookingResponse, error) {
	m := mx3FileRe.FindStringSubmatchIndex(filename)
	if m == nil {
		return nil, fmt.Errorf("not an MX3 answer file: %s", filename)
	}
	// base name up to the suffix digit
	base := filename[:m[2]]

	statusFile := base + "2.xml"
	detailFile := base + "3.xml"

	status, serr := readMX3File(filepath.Join(dir, statusFile))
	if serr != nil && !os.IsNotExist(serr) {
		return nil, fmt.Errorf("reading status file %s: %w", statusFile, serr)
	}
	detail, derr := readMX3File(filepath.Join(dir, detailFile))
	if derr != nil && !os.IsNotExist(derr) {
		return nil, fmt.Errorf("reading detail file %s: %w", detailFile, derr)
	}

	var resp *BookingResponse
	switch {
	case status != nil:
		resp = &BookingResponse{
			TradeID:       status.TradeRef,
			Success:       strings.EqualFold(status.MXAnswerStatus, "OK"),
			SystemTradeID: status.MXTradeID,
			Files:         []string{statusFile},
		}
	case detail != nil:
		// a rejection's detail landed after its status file was processed
		// on its own; the caller merges the reasons into the Error link
		resp = &BookingResponse{TradeID: detail.TradeRef}
	default:
		return nil, fmt.Errorf("reading status file %s: %w", statusFile, serr)
	}

	if detail != nil {
		var texts []string
		for _, msg := range detail.Messages {
			texts = append(texts, fmt.Sprintf("%s: %s", msg.Type, strings.TrimSpace(msg.Text)))
		}
		resp.ErrorText = strings.Join(texts, "; ")
		resp.Files = append(resp.Files, detailFile)
	}

	if resp.TradeID == "" {
		return nil, fmt.Errorf("no trade reference in file set %s", base)
	}
	return resp, nil
}

func readMX3File(path string) (*mx3Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var resp mx3Response
	if err := xml.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
