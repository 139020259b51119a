package reconciler

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxops/confirmhub/internal/types"
)

func TestMX3Matches(t *testing.T) {
	p := NewMX3Parser()

	assert.True(t, p.Matches("OPT_VB445-O1_evs_ans_ok_2.xml"))
	assert.True(t, p.Matches("FWD_BX99123-1_evs_ans_err_3.xml"))
	assert.False(t, p.Matches("OPT_VB445-O1_evs_ans_ok_4.xml"))
	assert.False(t, p.Matches("FXOption_VB445-O1_uplink_resp.xml"))
	assert.False(t, p.Matches("random.txt"))
}

func TestMX3ExpectedPrefixesCoverSpellings(t *testing.T) {
	p := NewMX3Parser()

	trade := &types.Trade{TradeID: "BX99123-1", ProductType: types.ProductForward}
	assert.Equal(t, []string{
		"FWD_BX99123-1_evs_ans",
		"Forward_BX99123-1_evs_ans",
	}, p.ExpectedPrefixes(trade))

	trade = &types.Trade{TradeID: "VB445-O1", ProductType: types.ProductOptionVanilla}
	assert.Equal(t, []string{
		"OPT_VB445-O1_evs_ans",
		"Option_VB445-O1_evs_ans",
	}, p.ExpectedPrefixes(trade))
}

func TestMX3ParseStatusOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SPOT_T1-1_evs_ans_ok_2.xml"),
		[]byte(mx3SuccessXML("T1-1", "MX42")), 0o644))

	resp, err := NewMX3Parser().Parse(dir, "SPOT_T1-1_evs_ans_ok_2.xml")
	require.NoError(t, err)
	assert.Equal(t, "T1-1", resp.TradeID)
	assert.True(t, resp.Success)
	assert.Equal(t, "MX42", resp.SystemTradeID)
	assert.Equal(t, []string{"SPOT_T1-1_evs_ans_ok_2.xml"}, resp.Files)
	assert.Empty(t, resp.ErrorText)
}

func TestMX3ParseLocatesSetFromDetailFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "OPT_T2-O1_evs_ans_err_2.xml"),
		[]byte(mx3RejectXML("T2-O1")), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "OPT_T2-O1_evs_ans_err_3.xml"),
		[]byte(mx3DetailXML("T2-O1")), 0o644))

	// arrival of either file of the set resolves the whole set
	resp, err := NewMX3Parser().Parse(dir, "OPT_T2-O1_evs_ans_err_3.xml")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "ERROR: Unknown portfolio; WARN: Stale rate", resp.ErrorText)
	assert.ElementsMatch(t, []string{
		"OPT_T2-O1_evs_ans_err_2.xml",
		"OPT_T2-O1_evs_ans_err_3.xml",
	}, resp.Files)
}

func TestMX3ParseDetailOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "OPT_T3-O1_evs_ans_err_3.xml"),
		[]byte(mx3DetailXML("T3-O1")), 0o644))

	// status file already processed and archived; the detail stands alone
	resp, err := NewMX3Parser().Parse(dir, "OPT_T3-O1_evs_ans_err_3.xml")
	require.NoError(t, err)
	assert.Equal(t, "T3-O1", resp.TradeID)
	assert.False(t, resp.Success)
	assert.Equal(t, "ERROR: Unknown portfolio; WARN: Stale rate", resp.ErrorText)
	assert.Equal(t, []string{"OPT_T3-O1_evs_ans_err_3.xml"}, resp.Files)
}

func TestMX3ParseMissingBothFiles(t *testing.T) {
	_, err := NewMX3Parser().Parse(t.TempDir(), "OPT_T4-O1_evs_ans_ok_2.xml")
	assert.Error(t, err)
}

func TestMX3ExportNameMatchesExpectedPrefixes(t *testing.T) {
	p := NewMX3Parser()
	for _, product := range []types.ProductType{
		types.ProductSpot, types.ProductForward, types.ProductSwap,
		types.ProductNdf, types.ProductOptionVanilla, types.ProductOptionNdo,
	} {
		trade := &types.Trade{TradeID: "T1-1", ProductType: product}
		name := fmt.Sprintf("%s_T1-1_evs_ans_ok_2.xml", MX3ExportName(product))
		assert.True(t, p.Matches(name), name)
		assert.True(t, hasAnyPrefix(name, p.ExpectedPrefixes(trade)), name)
	}
}

func TestMX3ParseMissingTradeRef(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SPOT_X_evs_ans_ok_2.xml"),
		[]byte(`<MXResponse MXAnswerStatus="OK"><MXTradeId>MX1</MXTradeId></MXResponse>`), 0o644))

	_, err := NewMX3Parser().Parse(dir, "SPOT_X_evs_ans_ok_2.xml")
	assert.Error(t, err)
}
