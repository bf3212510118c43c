package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"io"
	"log"
	"math"
	"regexp"
	"strconv"

	"golang.org/x/net/html/charset"
)

// Read reads an mzML file from an io.Reader
func Read(reader io.Reader) (MzML, error) {
	var mzML MzML

	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	// We are only interested in mzML content, so skip over indexedmzML
	// and everything else
	for {
		t, tokenErr := d.Token()
		if tokenErr != nil {
			if tokenErr == io.EOF {
				break
			}
			return mzML, tokenErr
		}
		switch t := t.(type) {
		case xml.StartElement:
			if t.Name.Local == "mzML" {
				if err := d.DecodeElement(&mzML.content, &t); err != nil {
					return mzML, err
				}
			}
		}
	}
	return mzML, nil
}

// binaryDataPars decodes the CV terms of an mzML binarydata section
//
// CV Terms for binary data compression
// MS:1000574 zlib compression
// MS:1000576 No Compression
//
// CV Terms for binary data array types
// MS:1000514 m/z array
// MS:1000515 intensity array
//
// CV Terms for binary-data-type
// MS:1000521 32-bit float
// MS:1000523 64-bit float
func binaryDataPars(bda *binaryDataArray) (zlibCompression, bits64, mzArray, intensityArray bool) {
	for _, cv := range bda.CvPar {
		switch cv.Accession {
		case `MS:1000574`:
			zlibCompression = true
		case `MS:1000514`:
			mzArray = true
		case `MS:1000515`:
			intensityArray = true
		case `MS:1000523`:
			bits64 = true
		case `MS:1002312`, `MS:1002313`, `MS:1002314`,
			`MS:1002746`, `MS:1002747`, `MS:1002748`:
			// MS-Numpress compression types
			log.Fatalf("Compression type not supported (CV term %s)", cv.Accession)
		}
	}
	return
}

func fillScan(p []Peak, bda *binaryDataArray) ([]Peak, error) {
	zlibCompression, bits64, mzArray, intensityArray := binaryDataPars(bda)
	if !mzArray && !intensityArray {
		return p, nil
	}
	data, err := base64.StdEncoding.DecodeString(bda.Binary)
	if err != nil {
		return nil, err
	}
	if zlibCompression {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer z.Close()
		data, err = io.ReadAll(z)
		if err != nil {
			return nil, err
		}
	}
	if bits64 {
		cnt := len(data) / 8
		for i := 0; i < cnt && i < len(p); i++ {
			v := math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
			if mzArray {
				p[i].Mz = v
			} else {
				p[i].Intens = v
			}
		}
	} else {
		cnt := len(data) / 4
		for i := 0; i < cnt && i < len(p); i++ {
			v := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
			if mzArray {
				p[i].Mz = v
			} else {
				p[i].Intens = v
			}
		}
	}
	return p, nil
}

// NumSpecs returns the number of spectra
func (f *MzML) NumSpecs() int {
	return len(f.content.Run.SpectrumList.Spectrum)
}

// ReadScan reads the peaks of a single scan by index
func (f *MzML) ReadScan(scanIndex int) ([]Peak, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return nil, ErrInvalidScanIndex
	}
	p := make([]Peak, f.content.Run.SpectrumList.Spectrum[scanIndex].DefaultArrayLength)
	var err error
	for _, b := range f.content.Run.SpectrumList.Spectrum[scanIndex].BinaryDataArrayList.BinaryDataArray {
		p, err = fillScan(p, &b)
		if err != nil {
			return p, err
		}
	}
	return p, nil
}

// MSLevel returns the MS level of a scan
func (f *MzML) MSLevel(scanIndex int) (int, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0, ErrInvalidScanIndex
	}
	for _, cv := range f.content.Run.SpectrumList.Spectrum[scanIndex].CvPar {
		if cv.Accession == "MS:1000511" { // ms level
			lvl, err := strconv.ParseInt(cv.Value, 10, 64)
			return int(lvl), err
		}
	}
	return 1, nil // If nothing else, guess it's MS1
}

var scanNumRE = regexp.MustCompile(`scan=(\d+)`)

// ScanNumber extracts the native scan number from the spectrum id,
// falling back to index+1 when the id carries none.
func (f *MzML) ScanNumber(scanIndex int) (int, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0, ErrInvalidScanIndex
	}
	id := f.content.Run.SpectrumList.Spectrum[scanIndex].ID
	if m := scanNumRE.FindStringSubmatch(id); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err
	}
	return scanIndex + 1, nil
}

// Precursors returns the selected ions of a scan with their charge
// states. Charge is 0 when the file does not annotate one.
func (f *MzML) Precursors(scanIndex int) ([]Precursor, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return nil, ErrInvalidScanIndex
	}
	var out []Precursor
	for _, pl := range f.content.Run.SpectrumList.Spectrum[scanIndex].PrecursorList {
		for _, prec := range pl.Precursor {
			for _, sel := range prec.SelectedIonList.SelectedIon {
				var p Precursor
				for _, cv := range sel.CvPar {
					switch cv.Accession {
					case `MS:1000744`: // selected ion m/z
						p.Mz, _ = strconv.ParseFloat(cv.Value, 64)
					case `MS:1000041`: // charge state
						p.Charge, _ = strconv.Atoi(cv.Value)
					}
				}
				if p.Mz > 0 {
					out = append(out, p)
				}
			}
		}
	}
	return out, nil
}
