package lockfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"slices"
	"strconv"
	"time"

	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	keyVersion  = "version"
	keyPackages = "packages"
)

// entryKeys are the per-entry fields this version understands, in write order.
var entryKeys = []string{"branch", "owner", "repo", "host", "rev", "sha256", "hash", "last_updated", "url"}

// entryDTO is the on-disk shape of one lock entry.
type entryDTO struct {
	Branch      string    `json:"branch"`
	Owner       string    `json:"owner"`
	Repo        string    `json:"repo"`
	Host        string    `json:"host"`
	Rev         string    `json:"rev"`
	SHA256      string    `json:"sha256"`
	Hash        string    `json:"hash"`
	LastUpdated timestamp `json:"last_updated"`
	URL         string    `json:"url"`
}

// timestamp reads RFC 3339 strings, legacy integer Unix seconds and null.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		t.Time = time.Time{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		t.Time = parsed.UTC()
		return nil
	default:
		secs, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return zerr.With(zerr.New("timestamp must be RFC 3339, Unix seconds or null"), "value", string(data))
		}
		t.Time = time.Unix(secs, 0).UTC()
		return nil
	}
}

func (t timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// member is one key of an ordered JSON object.
type member struct {
	key   string
	value any
}

// object marshals its members in order.
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses lockfile bytes. Package order and unknown fields are kept.
func Decode(data []byte) (*domain.Lockfile, error) {
	top, _, err := decodeObject(data)
	if err != nil {
		return nil, parseError(err)
	}

	version := 0
	if raw, ok := top[keyVersion]; ok {
		if err := json.Unmarshal(raw, &version); err != nil {
			return nil, parseError(zerr.Wrap(err, "invalid version"))
		}
	}
	if version < 0 || version > domain.LockfileVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrParse, "unsupported lockfile version"), "version", version)
	}

	extra := extraFields(top, keyVersion, keyPackages)

	raw, ok := top[keyPackages]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		lf := domain.NewLockfile()
		lf.Version = version
		lf.Extra = extra
		return lf, nil
	}

	packages, order, err := decodeObject(raw)
	if err != nil {
		return nil, parseError(zerr.Wrap(err, "invalid packages"))
	}
	entries := make([]domain.LockEntry, 0, len(order))
	for _, name := range order {
		entry, err := decodeEntry(name, packages[name])
		if err != nil {
			return nil, zerr.With(err, "package", name)
		}
		entries = append(entries, entry)
	}

	lf := domain.NewLockfile(entries...)
	lf.Version = version
	lf.Extra = extra
	return lf, nil
}

func decodeEntry(name string, raw json.RawMessage) (domain.LockEntry, error) {
	var dto entryDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domain.LockEntry{}, parseError(err)
	}
	fields, _, err := decodeObject(raw)
	if err != nil {
		return domain.LockEntry{}, parseError(err)
	}

	switch {
	case dto.Owner == "":
		return domain.LockEntry{}, parseError(zerr.New("package " + strconv.Quote(name) + " has no owner"))
	case dto.Repo == "":
		return domain.LockEntry{}, parseError(zerr.New("package " + strconv.Quote(name) + " has no repo"))
	}

	digest, err := entryDigest(dto)
	if err != nil {
		return domain.LockEntry{}, domain.Classify(domain.ErrParse, err)
	}

	host := dto.Host
	if host == "" {
		host = domain.DefaultHost
	}
	remote := domain.Remote{Host: host, Owner: dto.Owner, Repo: dto.Repo}

	return domain.LockEntry{
		Name:        name,
		Remote:      remote,
		Branch:      dto.Branch,
		Rev:         dto.Rev,
		Digest:      digest,
		URL:         dto.URL,
		LastUpdated: dto.LastUpdated.Time,
		Extra:       extraFields(fields, entryKeys...),
	}, nil
}

// entryDigest prefers the Nix base-32 field and cross-checks the SRI form.
func entryDigest(dto entryDTO) (domain.ContentDigest, error) {
	var digest, sri domain.ContentDigest
	var err error

	if dto.SHA256 != "" {
		if digest, err = domain.ParseContentDigest(dto.SHA256); err != nil {
			return domain.ContentDigest{}, err
		}
	}
	if dto.Hash != "" {
		if sri, err = domain.ParseContentDigest(dto.Hash); err != nil {
			return domain.ContentDigest{}, err
		}
	}

	switch {
	case digest.IsZero() && sri.IsZero():
		return domain.ContentDigest{}, zerr.New("entry has no sha256")
	case digest.IsZero():
		return sri, nil
	case !sri.IsZero() && !digest.Equal(sri):
		return domain.ContentDigest{}, zerr.With(zerr.New("sha256 and hash disagree"), "hash", dto.Hash)
	default:
		return digest, nil
	}
}

// Encode renders lf with two-space indentation and a trailing newline.
func Encode(lf *domain.Lockfile) ([]byte, error) {
	packages := make(object, 0, lf.Len())
	for _, e := range lf.Entries() {
		packages = append(packages, member{key: e.Name, value: encodeEntry(e)})
	}

	top := object{
		{key: keyVersion, value: domain.LockfileVersion},
		{key: keyPackages, value: packages},
	}
	top = appendExtra(top, lf.Extra)

	data, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode lockfile")
	}
	return append(data, '\n'), nil
}

// EncodeEntries renders entries as one JSON object keyed by name, in the
// given order, using the same per-entry fields as the lockfile.
func EncodeEntries(entries []domain.LockEntry) ([]byte, error) {
	out := make(object, 0, len(entries))
	for _, e := range entries {
		out = append(out, member{key: e.Name, value: encodeEntry(e)})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode entries")
	}
	return append(data, '\n'), nil
}

func encodeEntry(e domain.LockEntry) object {
	fields := object{
		{key: "branch", value: e.Branch},
		{key: "owner", value: e.Remote.Owner},
		{key: "repo", value: e.Remote.Repo},
	}
	if e.Remote.Host != "" && e.Remote.Host != domain.DefaultHost {
		fields = append(fields, member{key: "host", value: e.Remote.Host})
	}
	fields = append(fields,
		member{key: "rev", value: e.Rev},
		member{key: "sha256", value: e.Digest.Base32()},
		member{key: "hash", value: e.Digest.SRI()},
		member{key: "last_updated", value: timestamp{e.LastUpdated}},
		member{key: "url", value: e.URL},
	)
	return appendExtra(fields, e.Extra)
}

// appendExtra adds unknown fields in key order so output is stable.
func appendExtra(o object, extra map[string]json.RawMessage) object {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		o = append(o, member{key: k, value: extra[k]})
	}
	return o
}

func extraFields(fields map[string]json.RawMessage, known ...string) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	for k, v := range fields {
		if slices.Contains(known, k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra
}

// decodeObject reads one JSON object, returning its members and their order.
// Duplicate keys are rejected.
func decodeObject(data []byte) (map[string]json.RawMessage, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, zerr.New("expected a JSON object")
	}

	fields := make(map[string]json.RawMessage)
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)
		if _, dup := fields[key]; dup {
			return nil, nil, zerr.With(zerr.New("duplicate key"), "key", key)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		fields[key] = value
		order = append(order, key)
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, zerr.New("trailing data after JSON object")
	}
	return fields, order, nil
}

func parseError(err error) error {
	return domain.Classify(domain.ErrParse, err)
}
