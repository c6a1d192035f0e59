package results

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestDecoderFor(t *testing.T) {
	testCases := []struct {
		path    string
		want    Decoder
		wantErr bool
	}{
		{"out/sim.msgpack", MsgpackDecoder{}, false},
		{"sim.MPK", MsgpackDecoder{}, false},
		{"sim.yaml", YAMLDecoder{}, false},
		{"sim.yml", YAMLDecoder{}, false},
		{"sim.json", YAMLDecoder{}, false},
		{"sim.mat", nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			got, err := DecoderFor(tc.path)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMsgpackDecoder(t *testing.T) {
	raw := map[string]any{
		"m": map[string]any{"options": map[string]any{"fit_starts": 10.0, "hpc_bg": 1.0}},
		"f": map[string]any{
			"Echi2": []float64{1, 2},
			"dof":   3,
			"par": []map[string]any{
				{"id": "PGI", "type": "Net flux", "val": 1.5, "lb": nil},
			},
		},
	}
	data, err := msgpack.Marshal(raw)
	require.NoError(t, err)

	c, err := MsgpackDecoder{}.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.NotNil(t, c.Fit)
	assert.Equal(t, 10.0, c.Model.Options.FitStarts)
	require.NotNil(t, c.Model.Options.HPCBg)
	assert.Equal(t, 3, c.Fit.Dof)
	require.Len(t, c.Fit.Parameters, 1)
	require.NotNil(t, c.Fit.Parameters[0].Val)
	assert.Equal(t, 1.5, *c.Fit.Parameters[0].Val)
	assert.Nil(t, c.Fit.Parameters[0].LB)
}

func TestYAMLDecoder_JSON(t *testing.T) {
	doc := `{"m": {"options": {"sim_tunit": "h"}}, "f": {"chi2": 4.5, "mnt": [{"id": "EX", "expt": "e", "type": "Flux", "sres": 1}]}}`
	c, err := YAMLDecoder{}.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "h", c.Model.Options.SimTUnit)
	assert.Equal(t, 4.5, c.Fit.Chi2)
	require.Len(t, c.Fit.Measurements, 1)
}

func TestDecoders_Malformed(t *testing.T) {
	_, err := YAMLDecoder{}.Decode(strings.NewReader("m: [unclosed"))
	require.Error(t, err)
	_, err = MsgpackDecoder{}.Decode(bytes.NewReader([]byte{0xc1}))
	require.Error(t, err)
}

func TestRecords_WriteYAML(t *testing.T) {
	recs, err := NewExtractor(nil).FromContainer(testCtx(), testContainer(), testInfo, testSource)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, recs.WriteYAML(&buf))
	out := buf.String()
	assert.Contains(t, out, "simulation_id: sim01")
	assert.Contains(t, out, "fitted_fluxes:")
	assert.Contains(t, out, "rxn_id: PGI")
	assert.Contains(t, out, "flux_units: mmol*gDCW-1*hr-1")
}
