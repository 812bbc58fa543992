package rtproto

import "testing"

func FuzzValidateCommandEnvelope(f *testing.F) {
	f.Add("id", CommandPrint, int64(1), "from", `{"value":{"type":"int","value":"1"}}`)
	f.Add("", "", int64(0), "", "")

	f.Fuzz(func(t *testing.T, id string, typ string, ts int64, from string, body string) {
		cmd := CommandEnvelope{
			ID:   id,
			Type: typ,
			TS:   ts,
			From: from,
			Body: []byte(body),
		}
		_ = ValidateCommandEnvelope(cmd)
	})
}

func FuzzWireValueDecode(f *testing.F) {
	f.Add("double", "0.1", "")
	f.Add("float", "", "0x4214cccd")
	f.Add("char", "é", "")
	f.Add("long", "-9223372036854775808", "")

	f.Fuzz(func(t *testing.T, typ string, value string, bits string) {
		v, err := WireValue{Type: typ, Value: value, Bits: bits}.Decode()
		if err != nil {
			return
		}
		_ = v.String()
	})
}
