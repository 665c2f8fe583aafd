// Package serialization reads and writes model state as .npz archives: a
// zip file with one .npy entry per array, plus an optional __meta__.json
// entry carrying training metadata. The arrays are interchangeable with
// numpy.savez / numpy.load on the Python side.
package serialization

import (
	"archive/zip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/laurent-dinh/blocks/internal/tensor"
)

const npyMagic = "\x93NUMPY"

// Meta carries training progress alongside the arrays in a checkpoint.
type Meta struct {
	Epoch int     `json:"epoch"`
	Step  int     `json:"step"`
	Loss  float64 `json:"loss"`
}

const metaEntry = "__meta__.json"

// SaveArrays writes the named arrays to an .npz archive at path. A nil
// meta omits the metadata entry.
func SaveArrays(path string, arrays map[string]*tensor.RawTensor, meta *Meta) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	for name, raw := range arrays {
		w, err := zw.Create(name + ".npy")
		if err != nil {
			return fmt.Errorf("failed to create entry %s: %w", name, err)
		}
		if err := writeNPY(w, raw); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if meta != nil {
		w, err := zw.Create(metaEntry)
		if err != nil {
			return fmt.Errorf("failed to create metadata entry: %w", err)
		}
		if err := json.NewEncoder(w).Encode(meta); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}

// LoadArrays reads an .npz archive written by SaveArrays. The returned
// meta is nil when the archive carries no metadata entry.
func LoadArrays(path string) (map[string]*tensor.RawTensor, *Meta, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer zr.Close()

	arrays := make(map[string]*tensor.RawTensor)
	var meta *Meta
	for _, entry := range zr.File {
		rc, err := entry.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open entry %s: %w", entry.Name, err)
		}

		if entry.Name == metaEntry {
			meta = &Meta{}
			err = json.NewDecoder(rc).Decode(meta)
			rc.Close()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}

		name := strings.TrimSuffix(entry.Name, ".npy")
		raw, err := readNPY(rc)
		rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", entry.Name, err)
		}
		arrays[name] = raw
	}
	return arrays, meta, nil
}

func dtypeDescr(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return "<f4", nil
	case tensor.Int32:
		return "<i4", nil
	default:
		return "", fmt.Errorf("unsupported dtype %s", dt)
	}
}

func descrDType(descr string) (tensor.DataType, error) {
	switch descr {
	case "<f4":
		return tensor.Float32, nil
	case "<i4":
		return tensor.Int32, nil
	default:
		return 0, fmt.Errorf("unsupported descr %q", descr)
	}
}

// writeNPY writes a single array in .npy version 1.0 format.
func writeNPY(w io.Writer, raw *tensor.RawTensor) error {
	descr, err := dtypeDescr(raw.DType())
	if err != nil {
		return err
	}

	dims := make([]string, len(raw.Shape()))
	for i, d := range raw.Shape() {
		dims[i] = strconv.Itoa(d)
	}
	shapeRepr := strings.Join(dims, ", ")
	if len(dims) == 1 {
		shapeRepr += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, shapeRepr)

	// Pad so that magic + version + length + header is a multiple of 64,
	// with a trailing newline.
	total := len(npyMagic) + 2 + 2 + len(header) + 1
	if rem := total % 64; rem != 0 {
		header += strings.Repeat(" ", 64-rem)
	}
	header += "\n"

	if _, err := io.WriteString(w, npyMagic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err = w.Write(raw.Bytes())
	return err
}

// readNPY parses a single .npy version 1.x entry.
func readNPY(r io.Reader) (*tensor.RawTensor, error) {
	magic := make([]byte, 8)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if string(magic[:6]) != npyMagic {
		return nil, fmt.Errorf("not an npy entry")
	}

	var headerLen uint16
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return nil, fmt.Errorf("failed to read header length: %w", err)
	}
	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header := string(headerBytes)

	descr, err := headerField(header, "descr")
	if err != nil {
		return nil, err
	}
	dtype, err := descrDType(descr)
	if err != nil {
		return nil, err
	}

	order, err := headerField(header, "fortran_order")
	if err != nil {
		return nil, err
	}
	if order != "False" {
		return nil, fmt.Errorf("fortran-ordered arrays are not supported")
	}

	shape, err := headerShape(header)
	if err != nil {
		return nil, err
	}

	raw, err := tensor.NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, raw.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to read array data: %w", err)
	}
	return raw, nil
}

// headerField extracts the value of a key from the npy header dict. String
// values come back without quotes.
func headerField(header, key string) (string, error) {
	marker := "'" + key + "':"
	idx := strings.Index(header, marker)
	if idx < 0 {
		return "", fmt.Errorf("header missing %q", key)
	}
	rest := strings.TrimLeft(header[idx+len(marker):], " ")
	if strings.HasPrefix(rest, "'") {
		end := strings.Index(rest[1:], "'")
		if end < 0 {
			return "", fmt.Errorf("malformed header value for %q", key)
		}
		return rest[1 : 1+end], nil
	}
	end := strings.IndexAny(rest, ",}")
	if end < 0 {
		return "", fmt.Errorf("malformed header value for %q", key)
	}
	return strings.TrimSpace(rest[:end]), nil
}

// headerShape parses the shape tuple from the npy header dict.
func headerShape(header string) (tensor.Shape, error) {
	idx := strings.Index(header, "'shape':")
	if idx < 0 {
		return nil, fmt.Errorf("header missing shape")
	}
	rest := header[idx+len("'shape':"):]
	open := strings.Index(rest, "(")
	close := strings.Index(rest, ")")
	if open < 0 || close < open {
		return nil, fmt.Errorf("malformed shape tuple")
	}

	var shape tensor.Shape
	for _, part := range strings.Split(rest[open+1:close], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("malformed shape dimension %q: %w", part, err)
		}
		shape = append(shape, d)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("scalar arrays are not supported")
	}
	return shape, nil
}
