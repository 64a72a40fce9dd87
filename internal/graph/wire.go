package graph

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// ErrMalformedPayload marks a response that is not a nodes/relationships
// object.
var ErrMalformedPayload = errors.New("malformed graph payload")

type wireGraph struct {
	Nodes         *[]RawNode         `json:"nodes"`
	Relationships *[]RawRelationship `json:"relationships"`
}

// DecodeRaw parses the JSON wire format. Both "nodes" and "relationships"
// must be present as arrays; individual records may omit fields.
func DecodeRaw(data []byte) (RawGraph, error) {
	var w wireGraph
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&w); err != nil {
		return RawGraph{}, errors.Mark(errors.Wrap(err, "decode graph payload"), ErrMalformedPayload)
	}
	if w.Nodes == nil || w.Relationships == nil {
		return RawGraph{}, errors.Wrap(ErrMalformedPayload, "payload needs nodes and relationships")
	}
	return RawGraph{Nodes: *w.Nodes, Relationships: *w.Relationships}, nil
}

// EncodeRaw writes raw in the wire format.
func EncodeRaw(raw RawGraph) ([]byte, error) {
	if raw.Nodes == nil {
		raw.Nodes = []RawNode{}
	}
	if raw.Relationships == nil {
		raw.Relationships = []RawRelationship{}
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode graph payload")
	}
	return data, nil
}
