package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/denamwangi/katy-trail-live/internal/model"
)

var reKV = regexp.MustCompile(`(?i)([a-zA-Z_]+)=([^\s]+)`)

// Parser turns scanner output lines into sightings. One line is one
// advertisement; JSON objects, CSV rows (with an optional header) and
// key=value records are accepted. A line that carries no RSSI still
// parses; the engine discards it downstream.
type Parser struct {
	csv *CSVParser
}

func NewParser() *Parser {
	return &Parser{csv: NewCSVParser()}
}

// ParseLine returns (nil, nil) for blank lines and CSV headers.
func (p *Parser) ParseLine(line string) (*model.Sighting, error) {
	trim := strings.TrimSpace(line)
	if trim == "" {
		return nil, nil
	}
	if looksLikeJSON(trim) {
		return ParseJSONBytes([]byte(trim))
	}
	if strings.Contains(trim, ",") {
		s, err := p.csv.Parse(trim)
		if err == nil {
			return s, nil
		}
	}
	return parsePlain(trim)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func ParseJSONBytes(data []byte) (*model.Sighting, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return ParseJSONMap(obj), nil
}

func ParseJSONMap(obj map[string]interface{}) *model.Sighting {
	s := &model.Sighting{}
	flat := make(map[string]interface{}, len(obj))
	for key, val := range obj {
		flat[strings.ToLower(key)] = val
	}
	s.Address = firstString(flat, "address", "mac", "addr", "hw_addr")
	s.Name = firstString(flat, "name", "local_name", "device_name")
	s.ServiceIDs = serviceList(flat, "service_ids", "service_uuids", "services", "uuids")
	if ts := firstString(flat, "timestamp", "time", "ts"); ts != "" {
		if parsed, err := parseTimestamp(ts); err == nil {
			s.Timestamp = parsed
		}
	}
	for _, key := range []string{"rssi", "signal", "signal_strength"} {
		if val, ok := flat[key]; ok {
			if rssi, ok := toRSSI(val); ok {
				s.RSSI = &rssi
				break
			}
		}
	}
	return s
}

func parsePlain(line string) (*model.Sighting, error) {
	kv := map[string]interface{}{}
	for _, match := range reKV.FindAllStringSubmatch(line, -1) {
		kv[strings.ToLower(match[1])] = match[2]
	}
	if len(kv) == 0 {
		return nil, fmt.Errorf("unrecognized sighting line: %q", line)
	}
	return ParseJSONMap(kv), nil
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func serviceList(m map[string]interface{}, keys ...string) []string {
	for _, k := range keys {
		val, ok := m[k]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case []interface{}:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			var out []string
			for _, part := range strings.Split(v, ";") {
				if s := strings.TrimSpace(part); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func toRSSI(val interface{}) (int, bool) {
	switch v := val.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if isNumeric(value) {
		if sec, err := strconv.ParseInt(value, 10, 64); err == nil {
			if len(value) >= 13 {
				return time.Unix(0, sec*int64(time.Millisecond)).UTC(), nil
			}
			return time.Unix(sec, 0).UTC(), nil
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", value)
}

func isNumeric(value string) bool {
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return len(value) > 0
}

// CSVParser handles scanner CSV output. The first header row seen fixes
// the column mapping; headerless input falls back to the positional
// layout timestamp,address,name,rssi.
type CSVParser struct {
	header []string
}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Parse(line string) (*model.Sighting, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.TrimLeadingSpace = true
	record, err := r.Read()
	if err != nil {
		return nil, err
	}
	if len(record) == 0 {
		return nil, nil
	}
	if p.header == nil && looksLikeHeader(record) {
		p.header = normalizeHeader(record)
		return nil, nil
	}
	fields := map[string]interface{}{}
	if p.header != nil {
		for i, name := range p.header {
			if i >= len(record) {
				break
			}
			fields[name] = record[i]
		}
	} else {
		if len(record) >= 1 {
			fields["timestamp"] = record[0]
		}
		if len(record) >= 2 {
			fields["address"] = record[1]
		}
		if len(record) >= 3 {
			fields["name"] = record[2]
		}
		if len(record) >= 4 {
			fields["rssi"] = record[3]
		}
	}
	return ParseJSONMap(fields), nil
}

func looksLikeHeader(record []string) bool {
	for _, v := range record {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "timestamp", "time", "ts", "address", "mac", "addr", "name", "rssi", "signal", "service_ids", "service_uuids":
			return true
		}
	}
	return false
}

func normalizeHeader(record []string) []string {
	out := make([]string, len(record))
	for i, v := range record {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}
