package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type MetaKind int

const (
	MetaString MetaKind = iota
	MetaNumber
	MetaBool
	// MetaJSON couvre les objets imbriqués (et les tableaux), gardés en JSON brut
	MetaJSON
)

func (k MetaKind) String() string {
	switch k {
	case MetaString:
		return "string"
	case MetaNumber:
		return "number"
	case MetaBool:
		return "boolean"
	case MetaJSON:
		return "object"
	}
	return "unknown"
}

// MetaValue est une union étiquetée : seul le champ correspondant à Kind est significatif.
type MetaValue struct {
	Kind MetaKind
	Str  string
	Num  float64
	Bool bool
	Raw  json.RawMessage
}

func StringValue(s string) MetaValue { return MetaValue{Kind: MetaString, Str: s} }
func NumberValue(n float64) MetaValue { return MetaValue{Kind: MetaNumber, Num: n} }
func BoolValue(b bool) MetaValue { return MetaValue{Kind: MetaBool, Bool: b} }
func JSONValue(raw []byte) MetaValue { return MetaValue{Kind: MetaJSON, Raw: append(json.RawMessage(nil), raw...)} }

func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case MetaString:
		return json.Marshal(v.Str)
	case MetaNumber:
		return json.Marshal(v.Num)
	case MetaBool:
		return json.Marshal(v.Bool)
	case MetaJSON:
		if len(v.Raw) == 0 {
			return []byte("{}"), nil
		}
		return v.Raw, nil
	}
	return nil, fmt.Errorf("type de métadonnée inconnu: %d", v.Kind)
}

// MetaEntry est une paire clé/valeur de Metadata
type MetaEntry struct {
	Key   string
	Value MetaValue
}

// Metadata est un sac clé/valeur ordonné : l'ordre JSON d'origine est conservé.
type Metadata []MetaEntry

func (m Metadata) Get(key string) (MetaValue, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return MetaValue{}, false
}

// Set remplace la valeur en place si la clé existe, sinon l'ajoute à la fin
func (m *Metadata) Set(key string, value MetaValue) {
	for i := range *m {
		if (*m)[i].Key == key {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, MetaEntry{Key: key, Value: value})
}

func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, e := range m {
		keys = append(keys, e.Key)
	}
	return keys
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("métadonnée %q: %w", e.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*m = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("métadonnées: objet JSON attendu")
	}

	out := Metadata{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("métadonnées: clé invalide %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("métadonnée %q: %w", key, err)
		}

		value, present, err := parseMetaValue(raw)
		if err != nil {
			return fmt.Errorf("métadonnée %q: %w", key, err)
		}
		// null = absence de valeur
		if !present {
			continue
		}
		out.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}

func parseMetaValue(raw json.RawMessage) (MetaValue, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return MetaValue{}, false, fmt.Errorf("valeur vide")
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return MetaValue{}, false, err
		}
		return StringValue(s), true, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return MetaValue{}, false, err
		}
		return BoolValue(b), true, nil
	case 'n':
		return MetaValue{}, false, nil
	case '{', '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return MetaValue{}, false, err
		}
		return JSONValue(compact.Bytes()), true, nil
	default:
		n, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return MetaValue{}, false, fmt.Errorf("nombre invalide: %w", err)
		}
		return NumberValue(n), true, nil
	}
}
