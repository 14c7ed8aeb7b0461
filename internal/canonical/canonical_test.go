package canonical

import (
	"bytes"
	"testing"
)

func TestBytes_SortsObjectKeys(t *testing.T) {
	got, err := Bytes([]byte(`{"c": 3, "a": 1, "b": 2}`))
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	want := `{"a":1,"b":2,"c":3}`
	if string(got) != want {
		t.Fatalf("canonical bytes = %q, want %q", got, want)
	}
}

func TestBytes_Idempotent(t *testing.T) {
	input := []byte(`{"z":{"b":[2,1],"a":null},"y":"text","x":1.50}`)

	once, err := Bytes(input)
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	twice, err := Bytes(once)
	if err != nil {
		t.Fatalf("Bytes error on canonical input: %v", err)
	}
	if !bytes.Equal(once, twice) {
		t.Fatalf("canonical(canonical(v)) = %q, want %q", twice, once)
	}
}

func TestBytes_PreservesArrayOrder(t *testing.T) {
	got, err := Bytes([]byte(`{"list":[3,1,2]}`))
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	want := `{"list":[3,1,2]}`
	if string(got) != want {
		t.Fatalf("canonical bytes = %q, want %q", got, want)
	}
}

func TestBytes_PreservesNumberLiterals(t *testing.T) {
	got, err := Bytes([]byte(`{"n":12345678901234567890,"f":0.1}`))
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	want := `{"f":0.1,"n":12345678901234567890}`
	if string(got) != want {
		t.Fatalf("canonical bytes = %q, want %q", got, want)
	}
}

func TestBytes_NoHTMLEscaping(t *testing.T) {
	got, err := Bytes([]byte(`{"s":"<a&b>"}`))
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	want := `{"s":"<a&b>"}`
	if string(got) != want {
		t.Fatalf("canonical bytes = %q, want %q", got, want)
	}
}

func TestSHA256_KnownVector(t *testing.T) {
	got, err := SHA256([]byte(`{"c": 3, "a": 1, "b": 2}`))
	if err != nil {
		t.Fatalf("SHA256 error: %v", err)
	}
	// SHA-256 of the canonical bytes {"a":1,"b":2,"c":3}.
	want := "e6a3385fb77c287a712e7f406a451727f0625041823ecf23bea7ef39b2e39805"
	if got != want {
		t.Fatalf("SHA256 = %s, want %s", got, want)
	}
}

func TestSHA256_DeterministicAcrossCallers(t *testing.T) {
	type payload struct {
		Beta  int    `json:"beta"`
		Alpha string `json:"alpha"`
	}

	fromStruct, err := SHA256(payload{Beta: 2, Alpha: "x"})
	if err != nil {
		t.Fatalf("SHA256 error: %v", err)
	}
	fromText, err := SHA256([]byte(`{"beta":2,"alpha":"x"}`))
	if err != nil {
		t.Fatalf("SHA256 error: %v", err)
	}
	if fromStruct != fromText {
		t.Fatalf("struct hash %s != text hash %s", fromStruct, fromText)
	}
}

func TestUUIDv5_RFCVector(t *testing.T) {
	// RFC 4122 appendix-style vector: DNS namespace, "www.example.com".
	got, err := UUIDv5("6ba7b810-9dad-11d1-80b4-00c04fd430c8", "www.example.com")
	if err != nil {
		t.Fatalf("UUIDv5 error: %v", err)
	}
	want := "2ed6657d-e927-568b-95e1-2665a8aea6a2"
	if got != want {
		t.Fatalf("UUIDv5 = %s, want %s", got, want)
	}
}

func TestFindingID_Stable(t *testing.T) {
	got := FindingID(
		"GATE-001",
		"OPINION_NO_BASIS",
		"NO_SUPPORTING_ANCHORS",
		"BLOCK",
		"Opinion OPN-001 has no supporting anchors in audit log",
		"opinion",
		"OPN-001",
	)
	// Matches the reference value used by the desktop verification suite.
	want := "4502e9ae-cd37-5c9d-88fe-06f3a8ef5937"
	if got != want {
		t.Fatalf("FindingID = %s, want %s", got, want)
	}

	if again := FindingID(
		"GATE-001",
		"OPINION_NO_BASIS",
		"NO_SUPPORTING_ANCHORS",
		"BLOCK",
		"Opinion OPN-001 has no supporting anchors in audit log",
		"opinion",
		"OPN-001",
	); again != got {
		t.Fatalf("FindingID not stable: %s then %s", got, again)
	}
}
