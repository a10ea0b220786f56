package message

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHello(t *testing.T) {
	data, err := EncodeRequest(NewHello())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":0,"message":"hello"}`, string(data))
}

func TestEncodeTransaction(t *testing.T) {
	data, err := EncodeRequest(Transaction{RecipientPublicKey: "cGs=", Amount: 10, Fee: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":1,"recipient_public_key":"cGs=","amount":10,"fee":0}`, string(data))
}

func TestEncodeOutputQuery(t *testing.T) {
	data, err := EncodeRequest(OutputQuery{BlockHeight: 0, ComputationIndex: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":3,"block_height":0,"computation_index":2}`, string(data))
}

func TestEncodeComputationVerbatim(t *testing.T) {
	raw := "{\n  \"expression\": \"(a+b)\",\n  \"inputs\": {\"a\": \"x\"}\n}\n"
	data, err := EncodeRequest(Computation{Raw: json.RawMessage(raw)})
	require.NoError(t, err)
	assert.Equal(t, raw, string(data), "computation bytes must not be rewritten")
	assert.NotContains(t, string(data), `"type"`)
}

func TestEncodeRejectsInvalidRequests(t *testing.T) {
	_, err := EncodeRequest(Transaction{RecipientPublicKey: "k", Amount: 0, Fee: 1})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, FieldAmount, ve.Field)

	_, err = EncodeRequest(Computation{Raw: json.RawMessage(`{"type":2,`)})
	var je *JSONFormatError
	require.ErrorAs(t, err, &je)

	_, err = EncodeRequest(nil)
	require.Error(t, err)
}

func TestRequestRoundTrip(t *testing.T) {
	requests := []Request{
		NewHello(),
		Transaction{RecipientPublicKey: "AAEC", Amount: 1, Fee: 0},
		Transaction{RecipientPublicKey: "", Amount: 1 << 40, Fee: 7},
		OutputQuery{BlockHeight: 12, ComputationIndex: 0},
		Computation{Raw: json.RawMessage(`{"type":2,"expression":"a*b"}`)},
		Computation{Raw: json.RawMessage(`{"expression":"a*b"}`)},
	}

	for _, req := range requests {
		data, err := EncodeRequest(req)
		require.NoError(t, err)

		got, err := DecodeRequest(data)
		require.NoError(t, err)
		assert.Equal(t, req.Type(), got.Type())
		assert.Equal(t, req, got)
	}
}

func TestDecodeRequestInvalidJSON(t *testing.T) {
	_, err := DecodeRequest([]byte(`{"type":`))
	var je *JSONFormatError
	assert.ErrorAs(t, err, &je)
}

func TestComputationTag(t *testing.T) {
	tag, ok := Computation{Raw: json.RawMessage(`{"type":2}`)}.Tag()
	assert.True(t, ok)
	assert.Equal(t, TypeComputation, tag)

	_, ok = Computation{Raw: json.RawMessage(`{"expression":"a"}`)}.Tag()
	assert.False(t, ok)

	_, ok = Computation{Raw: json.RawMessage(`[1,2]`)}.Tag()
	assert.False(t, ok)
}

func TestDecodeResponse(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"status":200,"output":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "abc", resp.Output)
	assert.True(t, resp.OK())

	resp, err = DecodeResponse([]byte(`{"status":404,"message":"not found"}`))
	require.NoError(t, err)
	assert.Equal(t, "not found", resp.Message)
	assert.Empty(t, resp.Output)
	assert.False(t, resp.OK())
}

func TestDecodeResponseIgnoresUnknownFields(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"status":402,"balance":3,"extra":{"a":[1]}}`))
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentRequired, resp.Status)
}

func TestDecodeResponseMalformed(t *testing.T) {
	cases := []string{
		``,
		`not json`,
		`[1,2,3]`,
		`"status"`,
		`null`,
		`{}`,
		`{"message":"hi"}`,
		`{"status":null}`,
		`{"status":"200"}`,
		`{"status":200.5}`,
		`{"status":200,"output":42}`,
	}

	for _, in := range cases {
		_, err := DecodeResponse([]byte(in))
		var me *MalformedResponseError
		assert.ErrorAs(t, err, &me, "input %q", in)
	}
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "OK", StatusText(StatusOK))
	assert.Equal(t, "Payment Required", StatusText(StatusPaymentRequired))
	assert.Equal(t, "Unknown Status", StatusText(999))
}

func TestParseAmount(t *testing.T) {
	for _, in := range []string{"0", "-5", "abc", "", "1.5", "+3", "1 0", "99999999999999999999999"} {
		_, err := ParseAmount(in)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve, "input %q", in)
	}

	v, err := ParseAmount("1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	v, err = ParseAmount(" 42\n")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)
}

func TestParseFee(t *testing.T) {
	v, err := ParseFee("0")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	_, err = ParseFee("-1")
	assert.Error(t, err)
}

func TestParseOutputQueryFields(t *testing.T) {
	h, err := ParseBlockHeight("0")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), h)

	i, err := ParseComputationIndex("0")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), i)

	_, err = ParseBlockHeight("-1")
	assert.Error(t, err)
	_, err = ParseComputationIndex("-3")
	assert.Error(t, err)
}

func TestLoadComputation(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "job.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"type":2,"expression":"a+b"}`), 0o644))
	comp, err := LoadComputation(good)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":2,"expression":"a+b"}`, string(comp.Raw))

	_, err = LoadComputation(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, ErrComputationNotFound))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"type":2,`), 0o644))
	_, err = LoadComputation(bad)
	var je *JSONFormatError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, bad, je.Path)
}

func BenchmarkEncodeTransaction(b *testing.B) {
	tx := Transaction{RecipientPublicKey: "AAECAwQ=", Amount: 10, Fee: 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeRequest(tx); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeResponse(b *testing.B) {
	data := []byte(`{"status":200,"output":"c2VjcmV0"}`)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeResponse(data); err != nil {
			b.Fatal(err)
		}
	}
}
