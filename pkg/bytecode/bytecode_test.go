package bytecode

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	img := &Image{
		Strings: []string{"hello", "", "world"},
		Code:    []byte{0x01, 0x02, 0x03, 0x04},
	}

	data := img.Encode()

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Strings) != len(img.Strings) {
		t.Fatalf("got %d strings, want %d", len(got.Strings), len(img.Strings))
	}
	for i, s := range img.Strings {
		if got.Strings[i] != s {
			t.Errorf("string %d: got %q, want %q", i, got.Strings[i], s)
		}
	}
	if string(got.Code) != string(img.Code) {
		t.Errorf("code: got %v, want %v", got.Code, img.Code)
	}
}

func TestDecodeEmptyImage(t *testing.T) {
	img := &Image{}
	got, err := Decode(img.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Strings) != 0 || len(got.Code) != 0 {
		t.Fatalf("expected empty image, got %+v", got)
	}
}

func TestDecodeTruncatedDataErrors(t *testing.T) {
	img := &Image{Strings: []string{"abc"}, Code: []byte{0xAA, 0xBB}}
	data := img.Encode()

	for n := 0; n < len(data); n++ {
		if _, err := Decode(data[:n]); err == nil {
			t.Fatalf("Decode(data[:%d]): expected error on truncated input", n)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte{0x01, 0x02}); err == nil {
		t.Fatal("expected error decoding a too-short buffer")
	}
}
