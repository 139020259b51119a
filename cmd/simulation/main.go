package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fxops/confirmhub/internal/auth"
	"github.com/fxops/confirmhub/internal/parsing"
	"github.com/fxops/confirmhub/internal/reconciler"
	"github.com/fxops/confirmhub/internal/trades"
	"github.com/fxops/confirmhub/internal/types"
)

const serverAddress = "http://localhost:8080"

// One realistic inbound message per supported channel.
const (
	volbrokerFixture = "8=FIX.4.4|35=AE|571=VB445|75=20250512|60=20250512-14:03:22|" +
		"555=2|600=EUR/USD|609=OPT|687=10000000|556=EUR|624=B|612=1.1050|942=USD|608=OC|611=20250812|566=125000|675=USD|654=LEG001|" +
		"600=EUR/USD|609=FWD|687=5000000|556=EUR|624=C|566=1.0925|611=20250814|654=LEG002|" +
		"552=2|54=1|453=2|448=OURBANK|452=1|523=JSM|448=VOLBROKER|452=16|54=2|453=2|448=BANKABC|452=1|448=TRD9|452=122|523=PWL"

	tullettFixture = `TP ICAP FX OPTIONS CONFIRMATION

Deal Ref: TP445821
Trade Date: 12 May 2025
Trader: JSMITH
Counterparty: BANK ABC LONDON
Broker: TP LONDON

Option 1
Direction: We Buy
Currency Pair: EUR/USD
Call/Put: EUR Call
Notional: EUR 10,000,000
Strike: 1.1050
Expiry Date: 12 Aug 2025
Cut: NY 10:00
Premium: USD 125,000

Option 2
Direction: We Sell
Currency Pair: EUR/USD
Call/Put: EUR Put
Notional: EUR 10,000,000
Strike: 1.0850
Expiry Date: 12 Aug 2025
Cut: NY 10:00
Premium: USD 98,500

Confirmation of Hedge Details
Direction: We Sell
Currency Pair: EUR/USD
Hedge Amount: EUR 12,000,000
Hedge Rate: 1.0925
Value Date: 14 Aug 2025
`

	barclaysFixture = `BARX FX CONFIRMATION

Our Ref: BX99123
Trade Date: 14 May 2025
Trader: MJONES
Counterparty: ACME FUND LP

We buy EUR 5,000,000.00 against USD 5,425,000.00 at 1.0850
Value Date: 18 Aug 2025
`

	natwestFixture = `<html><body>
<p>NatWest Markets FX Confirmation</p>
<table>
<tr><td>Reference</td><td>NW35771</td></tr>
<tr><td>Product</td><td>FX Forward</td></tr>
<tr><td>Trade Date</td><td>14 May 2025</td></tr>
<tr><td>Value Date</td><td>14 Aug 2025</td></tr>
<tr><td>Trader</td><td>PWILLIAMS</td></tr>
<tr><td>Counterparty</td><td>ACME FUND LP</td></tr>
<tr><td>We Buy</td><td>GBP 2,500,000.00</td></tr>
<tr><td>We Sell</td><td>USD 3,175,000.00</td></tr>
<tr><td>Rate</td><td>1.2700</td></tr>
</table>
</body></html>
`
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// simulationClient handles HTTP communication with the confirmation hub API
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client
}

// newSimulationClient authenticates against the hub and returns a ready client
func newSimulationClient() (*simulationClient, error) {
	sc := &simulationClient{
		baseURL: serverAddress,
		client:  &http.Client{Timeout: 10 * time.Second},
	}

	body, err := json.Marshal(auth.Credentials{
		APIKey:    auth.TestAPIKey,
		APISecret: auth.TestAPISecret,
	})
	if err != nil {
		return nil, err
	}
	resp, err := sc.client.Post(sc.baseURL+"/api/v1/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Data auth.TokenResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	sc.authToken = envelope.Data.Token
	return sc, nil
}

func (sc *simulationClient) post(path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, sc.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sc.authToken)

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, data)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// ingest submits one raw message and returns its id
func (sc *simulationClient) ingest(req parsing.IngestRequest) (string, error) {
	var envelope struct {
		Data types.MessageIn `json:"data"`
	}
	if err := sc.post("/api/v1/messages", req, &envelope); err != nil {
		return "", err
	}
	return envelope.Data.MessageID, nil
}

// process triggers parsing of one ingested message
func (sc *simulationClient) process(messageID string) (*parsing.Outcome, error) {
	var envelope struct {
		Data parsing.Outcome `json:"data"`
	}
	path := fmt.Sprintf("/api/v1/internal/messages/%s/process", messageID)
	if err := sc.post(path, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// submitLink marks one trade's MX3 link as exported so the reconciler starts
// waiting for its answer
func (sc *simulationClient) submitLink(tradeID string) error {
	path := fmt.Sprintf("/api/v1/trades/%s/links/MX3/submit", tradeID)
	return sc.post(path, nil, nil)
}

func (sc *simulationClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, sc.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+sc.authToken)

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, data)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// tradeProduct looks up one trade's product type, which decides the spelling
// its MX3 answer files are named under
func (sc *simulationClient) tradeProduct(tradeID string) (types.ProductType, error) {
	var envelope struct {
		Data trades.TradeStatus `json:"data"`
	}
	if err := sc.get("/api/v1/trades/"+tradeID, &envelope); err != nil {
		return "", err
	}
	return envelope.Data.Trade.ProductType, nil
}

// dropMX3Response writes a success answer file set for one trade into the MX3
// response folder so the live watcher picks it up
func dropMX3Response(dir, tradeID, spelling string) error {
	base := fmt.Sprintf("%s_%s_evs_ans_ok_", spelling, tradeID)
	status := fmt.Sprintf(`<MXResponse MXAnswerStatus="OK"><TradeRef>%s</TradeRef><MXTradeId>MX%d</MXTradeId></MXResponse>`,
		tradeID, time.Now().UnixNano()%1000000)
	return os.WriteFile(filepath.Join(dir, base+"2.xml"), []byte(status), 0o644)
}

func main() {
	sc, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise simulation client")
	}

	fixtures := []parsing.IngestRequest{
		{SourceType: types.SourceFix, SourceVenueCode: types.VenueVolbroker, FixMsgType: "AE", RawPayload: volbrokerFixture},
		{SourceType: types.SourceEmail, SourceVenueCode: types.VenueTullett, RawPayload: tullettFixture},
		{SourceType: types.SourceEmail, SourceVenueCode: types.VenueBarclays, RawPayload: barclaysFixture},
		{SourceType: types.SourceEmail, SourceVenueCode: types.VenueNatWest, RawPayload: natwestFixture},
	}

	mx3Dir := os.Getenv("CONFIRMHUB_MX3_RESPONSE_DIR")
	if mx3Dir == "" {
		mx3Dir = "drops/mx3/responses"
	}

	for _, fixture := range fixtures {
		messageID, err := sc.ingest(fixture)
		if err != nil {
			log.Error().Err(err).Str("venue", fixture.SourceVenueCode).Msg("ingest failed")
			continue
		}
		outcome, err := sc.process(messageID)
		if err != nil {
			log.Error().Err(err).Str("message_id", messageID).Msg("processing failed")
			continue
		}
		log.Info().
			Str("venue", fixture.SourceVenueCode).
			Bool("parsed", outcome.Parsed).
			Strs("trade_ids", outcome.TradeIDs).
			Str("reason", outcome.Reason).
			Msg("message processed")

		// mark each leg exported, then drop a booking answer named the way
		// MX3 spells the leg's product
		for _, tradeID := range outcome.TradeIDs {
			if err := sc.submitLink(tradeID); err != nil {
				log.Error().Err(err).Str("trade_id", tradeID).Msg("failed to submit MX3 link")
				continue
			}
			product, err := sc.tradeProduct(tradeID)
			if err != nil {
				log.Error().Err(err).Str("trade_id", tradeID).Msg("failed to look up trade product")
				continue
			}
			if err := dropMX3Response(mx3Dir, tradeID, reconciler.MX3ExportName(product)); err != nil {
				log.Error().Err(err).Str("trade_id", tradeID).Msg("failed to drop MX3 response")
			}
		}
	}

	log.Info().Msg("simulation complete; reconcilers will book the dropped responses")
}
