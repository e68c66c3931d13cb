package finapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/emptypb"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, "json", c.Name())
}

func TestCodec_PlainStruct(t *testing.T) {
	var c Codec
	data, err := c.Marshal(&TradingHistoryRequest{Symbol: "SH600000", Type: HistoryMonthly})
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"SH600000","typ":2}`, string(data))

	var got PredictRequest
	require.NoError(t, c.Unmarshal([]byte(`{"data":[1.5,2],"length":3}`), &got))
	assert.Equal(t, PredictRequest{Data: []float64{1.5, 2}, Length: 3}, got)
}

func TestCodec_ProtoMessage(t *testing.T) {
	var c Codec
	data, err := c.Marshal(&emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	require.NoError(t, c.Unmarshal(data, &emptypb.Empty{}))
}

func TestCodec_InvalidJSON(t *testing.T) {
	var c Codec
	err := c.Unmarshal([]byte("not json"), &ListStocksResponse{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}
