package protocol

import "testing"

func TestErrorResponseRoundTrip(t *testing.T) {
	tests := []ErrorResponse{
		{Message: "boom", Unexpected: true},
		{Message: "validation: name required", Unexpected: false},
		{Message: "", Unexpected: false},
	}

	for _, want := range tests {
		e := NewEncoder()
		want.AppendBinary(e)

		var got ErrorResponse
		if err := got.ParseBinary(NewDecoder(e.Bytes())); err != nil {
			t.Fatalf("ParseBinary() error = %v", err)
		}
		if got != want {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	}
}

func TestSysResponseIDs(t *testing.T) {
	tests := []struct {
		resp Response
		id   MessageID
	}{
		{new(EmptyResponse), SysEmptyID},
		{new(ErrorResponse), SysErrorID},
		{new(StringResponse), SysStringID},
		{new(BoolResponse), SysBoolID},
	}

	for _, tc := range tests {
		if got := tc.resp.WireID(); got != tc.id {
			t.Errorf("%T WireID() = %v, want %v", tc.resp, got, tc.id)
		}
		if !tc.id.Reserved() {
			t.Errorf("%v Reserved() = false, want true", tc.id)
		}
	}
}

func TestStringAndBoolResponseRoundTrip(t *testing.T) {
	e := NewEncoder()
	(&StringResponse{Value: "ok"}).AppendBinary(e)

	var sr StringResponse
	if err := sr.ParseBinary(NewDecoder(e.Bytes())); err != nil || sr.Value != "ok" {
		t.Errorf("StringResponse round trip = %+v, %v", sr, err)
	}

	e.Reset()
	(&BoolResponse{Value: true}).AppendBinary(e)

	var br BoolResponse
	if err := br.ParseBinary(NewDecoder(e.Bytes())); err != nil || !br.Value {
		t.Errorf("BoolResponse round trip = %+v, %v", br, err)
	}
}
