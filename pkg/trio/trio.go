package trio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/foliodb/folio/pkg/model"
)

const (
	kMarker   = 'M'
	kRemove   = 'R'
	kBool     = 'b'
	kNumber   = 'n'
	kStr      = 's'
	kURI      = 'u'
	kRef      = 'x'
	kDateTime = 'z'
	kDate     = 'd'
	kTime     = 't'
	kCoord    = 'c'
	kBytes    = 'y'
	kList     = 'l'
	kDict     = 'D'
)

// Encode writes d to w in the Trio token encoding.
func Encode(w io.Writer, d model.Dict) error {
	_, err := w.Write(encodeDictBody(d))
	return err
}

// Decode reads a full Dict from r.
func Decode(r io.Reader) (model.Dict, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Dict{}, fmt.Errorf("trio: read: %w", err)
	}
	d, n, err := decodeDictBody(data)
	if err != nil {
		return model.Dict{}, err
	}
	if n != len(data) {
		return model.Dict{}, &model.EncodingError{Err: fmt.Errorf("trailing garbage after dict (%d of %d bytes consumed)", n, len(data))}
	}
	return d, nil
}

// EncodeValue and DecodeValue expose single-value (de)serialization.
// HistoryStore does not use them; it encodes each HisItem as a Dict.
func EncodeValue(v model.Value) []byte { return encodeValue(v) }

func DecodeValue(data []byte) (model.Value, error) {
	v, n, err := decodeValue(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, &model.EncodingError{Err: fmt.Errorf("trailing garbage after value")}
	}
	return v, nil
}

func encodeDictBody(d model.Dict) []byte {
	var buf bytes.Buffer
	d.Each(func(name string, v model.Value) bool {
		buf.WriteString(strconv.Itoa(len(name)))
		buf.WriteByte(':')
		buf.WriteString(name)
		buf.Write(encodeValue(v))
		return true
	})
	return buf.Bytes()
}

func decodeDictBody(data []byte) (model.Dict, int, error) {
	d := model.Dict{}
	pos := 0
	for pos < len(data) {
		nameLen, adv, err := readUint(data[pos:])
		if err != nil {
			return model.Dict{}, 0, err
		}
		pos += adv
		if pos+nameLen > len(data) {
			return model.Dict{}, 0, &model.EncodingError{Err: fmt.Errorf("truncated tag name")}
		}
		name := string(data[pos : pos+nameLen])
		pos += nameLen
		v, n, err := decodeValue(data[pos:])
		if err != nil {
			return model.Dict{}, 0, err
		}
		pos += n
		d = d.WithSet(name, v)
	}
	return d, pos, nil
}

func encodeValue(v model.Value) []byte {
	var kind byte
	var payload []byte
	switch vv := v.(type) {
	case model.MarkerVal:
		kind = kMarker
	case model.RemoveVal:
		kind = kRemove
	case model.BoolVal:
		kind = kBool
		if vv {
			payload = []byte{'t'}
		} else {
			payload = []byte{'f'}
		}
	case model.NumberVal:
		kind = kNumber
		payload = []byte(strconv.FormatFloat(vv.Val, 'g', -1, 64) + "|" + vv.Unit)
	case model.StrVal:
		kind = kStr
		payload = []byte(vv)
	case model.URIVal:
		kind = kURI
		payload = []byte(vv)
	case model.RefVal:
		kind = kRef
		payload = []byte(vv.Ref.ID())
	case model.DateTimeVal:
		kind = kDateTime
		payload = []byte(vv.Time.Format(time.RFC3339Nano) + "|" + vv.TZ)
	case model.DateVal:
		kind = kDate
		payload = []byte(fmt.Sprintf("%04d-%02d-%02d", vv.Year, vv.Month, vv.Day))
	case model.TimeVal:
		kind = kTime
		payload = []byte(fmt.Sprintf("%02d:%02d:%02d", vv.Hour, vv.Min, vv.Sec))
	case model.CoordVal:
		kind = kCoord
		payload = []byte(strconv.FormatFloat(vv.Lat, 'g', -1, 64) + "," + strconv.FormatFloat(vv.Lng, 'g', -1, 64))
	case model.BytesVal:
		kind = kBytes
		payload = []byte(base64.StdEncoding.EncodeToString(vv))
	case model.ListVal:
		kind = kList
		var buf bytes.Buffer
		for _, item := range vv {
			buf.Write(encodeValue(item))
		}
		payload = buf.Bytes()
	case model.DictVal:
		kind = kDict
		payload = encodeDictBody(vv.Dict)
	default:
		kind = kMarker
	}
	var out bytes.Buffer
	out.WriteByte(kind)
	out.WriteString(strconv.Itoa(len(payload)))
	out.WriteByte(':')
	out.Write(payload)
	return out.Bytes()
}

func decodeValue(data []byte) (model.Value, int, error) {
	if len(data) == 0 {
		return nil, 0, &model.EncodingError{Err: fmt.Errorf("unexpected end of input")}
	}
	kind := data[0]
	length, adv, err := readUint(data[1:])
	if err != nil {
		return nil, 0, err
	}
	pos := 1 + adv
	if pos+length > len(data) {
		return nil, 0, &model.EncodingError{Err: fmt.Errorf("truncated value payload for kind %c", kind)}
	}
	payload := data[pos : pos+length]
	total := pos + length

	switch kind {
	case kMarker:
		return model.Marker, total, nil
	case kRemove:
		return model.Remove, total, nil
	case kBool:
		return model.BoolVal(len(payload) > 0 && payload[0] == 't'), total, nil
	case kNumber:
		parts := strings.SplitN(string(payload), "|", 2)
		f, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, 0, &model.EncodingError{Err: err}
		}
		unit := ""
		if len(parts) == 2 {
			unit = parts[1]
		}
		return model.NumberVal{Val: f, Unit: unit}, total, nil
	case kStr:
		return model.StrVal(string(payload)), total, nil
	case kURI:
		return model.URIVal(string(payload)), total, nil
	case kRef:
		return model.RefVal{Ref: model.NewRef(string(payload))}, total, nil
	case kDateTime:
		parts := strings.SplitN(string(payload), "|", 2)
		t, err := time.Parse(time.RFC3339Nano, parts[0])
		if err != nil {
			return nil, 0, &model.EncodingError{Err: err}
		}
		tz := ""
		if len(parts) == 2 {
			tz = parts[1]
		}
		return model.DateTimeVal{Time: t, TZ: tz}, total, nil
	case kDate:
		var y, m, dd int
		if _, err := fmt.Sscanf(string(payload), "%04d-%02d-%02d", &y, &m, &dd); err != nil {
			return nil, 0, &model.EncodingError{Err: err}
		}
		return model.DateVal{Year: y, Month: time.Month(m), Day: dd}, total, nil
	case kTime:
		var h, mi, s int
		if _, err := fmt.Sscanf(string(payload), "%02d:%02d:%02d", &h, &mi, &s); err != nil {
			return nil, 0, &model.EncodingError{Err: err}
		}
		return model.TimeVal{Hour: h, Min: mi, Sec: s}, total, nil
	case kCoord:
		parts := strings.SplitN(string(payload), ",", 2)
		if len(parts) != 2 {
			return nil, 0, &model.EncodingError{Err: fmt.Errorf("malformed coord")}
		}
		lat, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, 0, &model.EncodingError{Err: err}
		}
		lng, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, 0, &model.EncodingError{Err: err}
		}
		return model.CoordVal{Lat: lat, Lng: lng}, total, nil
	case kBytes:
		raw, err := base64.StdEncoding.DecodeString(string(payload))
		if err != nil {
			return nil, 0, &model.EncodingError{Err: err}
		}
		return model.BytesVal(raw), total, nil
	case kList:
		var items model.ListVal
		p := 0
		for p < len(payload) {
			item, n, err := decodeValue(payload[p:])
			if err != nil {
				return nil, 0, err
			}
			items = append(items, item)
			p += n
		}
		return items, total, nil
	case kDict:
		nested, n, err := decodeDictBody(payload)
		if err != nil {
			return nil, 0, err
		}
		if n != len(payload) {
			return nil, 0, &model.EncodingError{Err: fmt.Errorf("trailing garbage in nested dict")}
		}
		return model.DictVal{Dict: nested}, total, nil
	default:
		return nil, 0, &model.EncodingError{Err: fmt.Errorf("unknown value kind byte %q", kind)}
	}
}

func readUint(data []byte) (int, int, error) {
	i := 0
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(data) || data[i] != ':' {
		return 0, 0, &model.EncodingError{Err: fmt.Errorf("malformed length prefix")}
	}
	n, err := strconv.Atoi(string(data[:i]))
	if err != nil {
		return 0, 0, &model.EncodingError{Err: err}
	}
	return n, i + 1, nil
}
