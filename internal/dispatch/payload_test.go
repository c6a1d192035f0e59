package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/isoflux/internal/ctxlog"
	"github.com/zishang520/engine.io/v2/types"
)

func TestRequestPayload(t *testing.T) {
	p := Request{SimulationID: "sim01", Script: "clear functions\n"}.payload()
	assert.Equal(t, map[string]any{
		"simulation_id": "sim01",
		"script":        "clear functions\n",
		"format":        DefaultFormat,
	}, p)

	p = Request{SimulationID: "sim01", Format: "yaml"}.payload()
	assert.Equal(t, "yaml", p["format"])
}

func TestDecodeResponse(t *testing.T) {
	container := []byte{0x81, 0xa1, 0x66, 0xc0}

	testCases := []struct {
		name    string
		data    []any
		want    *Response
		wantErr bool
	}{
		{
			name: "binary attachment",
			data: []any{map[string]any{"simulation_id": "sim01", "format": "msgpack", "container": container}},
			want: &Response{SimulationID: "sim01", Format: "msgpack", Container: container},
		},
		{
			name: "base64 text",
			data: []any{map[string]any{"simulation_id": "sim01", "format": "yaml", "container": base64.StdEncoding.EncodeToString([]byte("f: {}\n"))}},
			want: &Response{SimulationID: "sim01", Format: "yaml", Container: []byte("f: {}\n")},
		},
		{
			name: "format defaults",
			data: []any{map[string]any{"container": container}},
			want: &Response{Format: DefaultFormat, Container: container},
		},
		{name: "empty", data: nil, wantErr: true},
		{name: "not an object", data: []any{"done"}, wantErr: true},
		{name: "no container", data: []any{map[string]any{"simulation_id": "sim01"}}, wantErr: true},
		{name: "bad base64", data: []any{map[string]any{"container": "!!"}}, wantErr: true},
		{name: "wrong container type", data: []any{map[string]any{"container": 42.0}}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeResponse(tc.data)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeWorkerError(t *testing.T) {
	assert.EqualError(t, decodeWorkerError(nil), "worker reported an error")
	assert.EqualError(t, decodeWorkerError([]any{"license expired"}), "worker error: license expired")
	assert.EqualError(t, decodeWorkerError([]any{map[string]any{"message": "bad model"}}), "worker error: bad model")

	cause := errors.New("boom")
	assert.ErrorIs(t, decodeWorkerError([]any{cause}), cause)
	assert.EqualError(t, decodeWorkerError([]any{42}), "worker error: 42")
}

func TestDial_InvalidURL(t *testing.T) {
	_, err := Dial(context.Background(), Config{URL: "localhost:3000"})
	require.Error(t, err)

	_, err = Dial(context.Background(), Config{URL: "://bad"})
	require.Error(t, err)
}

func TestDial_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Dial(ctx, Config{URL: "http://127.0.0.1:1/socket.io/", ConnectTimeout: time.Second})
	require.Error(t, err)
}

func TestAwait(t *testing.T) {
	result := types.EventName(EventResult)
	workerErr := types.EventName(EventError)

	t.Run("result is delivered and listeners are removed", func(t *testing.T) {
		em := types.NewEventEmitter()
		done, stop := await(em, "sim01", ctxlog.Discard())

		em.Emit(result, map[string]any{"simulation_id": "sim01", "container": []byte("f: {}\n")})
		o := <-done
		require.NoError(t, o.err)
		assert.Equal(t, []byte("f: {}\n"), o.resp.Container)

		stop()
		assert.Zero(t, em.ListenerCount(result))
		assert.Zero(t, em.ListenerCount(workerErr))
	})

	t.Run("repeated calls do not pile up listeners", func(t *testing.T) {
		em := types.NewEventEmitter()
		for range 3 {
			_, stop := await(em, "sim01", ctxlog.Discard())
			stop()
		}
		assert.Zero(t, em.ListenerCount(result))
		assert.Zero(t, em.ListenerCount(workerErr))
	})

	t.Run("answer for another simulation", func(t *testing.T) {
		em := types.NewEventEmitter()
		done, stop := await(em, "sim01", ctxlog.Discard())
		defer stop()

		em.Emit(result, map[string]any{"simulation_id": "sim02", "container": []byte("x")})
		o := <-done
		require.Error(t, o.err)
		assert.Contains(t, o.err.Error(), "sim02")
	})

	t.Run("worker error", func(t *testing.T) {
		em := types.NewEventEmitter()
		done, stop := await(em, "sim01", ctxlog.Discard())
		defer stop()

		em.Emit(workerErr, "solver crashed")
		o := <-done
		require.Error(t, o.err)
	})
}
