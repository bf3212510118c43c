package mzml

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func encode64(vals []float64) string {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func encode32(vals []float64) string {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func testDoc() string {
	mzs := encode64([]float64{200.5, 300.25})
	intens := encode32([]float64{100, 200})
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<mzML xmlns="http://psi.hupo.org/ms/mzml" version="1.1.0">
  <run id="r1">
    <spectrumList count="2">
      <spectrum index="0" id="scan=100" defaultArrayLength="0">
        <cvParam accession="MS:1000511" name="ms level" value="1"/>
      </spectrum>
      <spectrum index="1" id="scan=101" defaultArrayLength="2">
        <cvParam accession="MS:1000511" name="ms level" value="2"/>
        <precursorList count="1">
          <precursor>
            <selectedIonList count="1">
              <selectedIon>
                <cvParam accession="MS:1000744" name="selected ion m/z" value="450.75"/>
                <cvParam accession="MS:1000041" name="charge state" value="2"/>
              </selectedIon>
            </selectedIonList>
          </precursor>
        </precursorList>
        <binaryDataArrayList count="2">
          <binaryDataArray encodedLength="0">
            <cvParam accession="MS:1000523" name="64-bit float"/>
            <cvParam accession="MS:1000514" name="m/z array"/>
            <binary>%s</binary>
          </binaryDataArray>
          <binaryDataArray encodedLength="0">
            <cvParam accession="MS:1000521" name="32-bit float"/>
            <cvParam accession="MS:1000515" name="intensity array"/>
            <binary>%s</binary>
          </binaryDataArray>
        </binaryDataArrayList>
      </spectrum>
    </spectrumList>
  </run>
</mzML>
`, mzs, intens)
}

func TestRead(t *testing.T) {
	f, err := Read(strings.NewReader(testDoc()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.NumSpecs() != 2 {
		t.Fatalf("NumSpecs = %d, want 2", f.NumSpecs())
	}

	lvl, err := f.MSLevel(0)
	if err != nil || lvl != 1 {
		t.Errorf("MSLevel(0) = %d, %v", lvl, err)
	}
	lvl, err = f.MSLevel(1)
	if err != nil || lvl != 2 {
		t.Errorf("MSLevel(1) = %d, %v", lvl, err)
	}

	scan, err := f.ScanNumber(1)
	if err != nil || scan != 101 {
		t.Errorf("ScanNumber(1) = %d, %v", scan, err)
	}

	peaks, err := f.ReadScan(1)
	if err != nil {
		t.Fatalf("ReadScan: %v", err)
	}
	want := []Peak{{Mz: 200.5, Intens: 100}, {Mz: 300.25, Intens: 200}}
	if diff := cmp.Diff(want, peaks); diff != "" {
		t.Errorf("peaks mismatch (-want +got):\n%s", diff)
	}

	pre, err := f.Precursors(1)
	if err != nil {
		t.Fatalf("Precursors: %v", err)
	}
	if diff := cmp.Diff([]Precursor{{Mz: 450.75, Charge: 2}}, pre); diff != "" {
		t.Errorf("precursors mismatch (-want +got):\n%s", diff)
	}

	if _, err := f.ReadScan(5); err != ErrInvalidScanIndex {
		t.Errorf("expected ErrInvalidScanIndex, got %v", err)
	}
}
