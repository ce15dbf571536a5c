package remote

import (
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/segmentio/encoding/json"
)

// Message actions.
const (
	ActionInit = "init"
	ActionCall = "call"
	ActionAck  = "ack"
)

// Message is the single wire shape of the channel:
//
//	{"action":"init","data":[depth, subMeshLevel]}
//	{"action":"call","func":"sphere","data":[cx, cy, cz, r, v],"rid":"..."}
//	{"action":"ack","rid":"...","data":[result],"error":"..."}
//
// An init subMeshLevel that is 0 or omitted selects the default level.
type Message struct {
	Action string          `json:"action"`
	Func   string          `json:"func,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	RID    string          `json:"rid,omitempty"`
	Error  string          `json:"error,omitempty"`
}

var (
	ErrClosed         = errors.New("remote: channel closed")
	ErrInvalidMessage = errors.New("remote: invalid message")
	ErrUnknownFunc    = errors.New("remote: unknown function")
	ErrBadArgs        = errors.New("remote: bad arguments")
	ErrCallFailed     = errors.New("remote: call failed")
)

const messageSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["action"],
  "properties": {
    "action": {"type": "string", "minLength": 1},
    "func": {"type": "string", "minLength": 1},
    "data": {"type": "array"},
    "rid": {"type": "string"},
    "error": {"type": "string"}
  },
  "allOf": [
    {
      "if": {"properties": {"action": {"const": "init"}}},
      "then": {
        "required": ["data"],
        "properties": {
          "data": {
            "minItems": 1,
            "maxItems": 2,
            "items": {"type": "integer", "minimum": 0, "maximum": 20}
          }
        }
      }
    },
    {
      "if": {"properties": {"action": {"const": "call"}}},
      "then": {
        "required": ["func"],
        "properties": {"data": {"items": {"type": "number"}}}
      }
    },
    {
      "if": {"properties": {"action": {"const": "ack"}}},
      "then": {"required": ["rid"]}
    }
  ]
}`

var schema = jsonschema.MustCompileString("voxtree-message.json", messageSchema)

func Encode(m Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s message", m.Action)
	}
	return b, nil
}

// Decode parses and validates one inbound message. Failures wrap
// ErrInvalidMessage.
func Decode(b []byte) (Message, error) {
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return Message{}, errors.Wrap(ErrInvalidMessage, err.Error())
	}
	if err := schema.Validate(doc); err != nil {
		return Message{}, errors.Wrap(ErrInvalidMessage, err.Error())
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, errors.Wrap(ErrInvalidMessage, err.Error())
	}
	return m, nil
}

func encodeArgs(args []any) (json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return nil, errors.Wrap(ErrBadArgs, err.Error())
	}
	return b, nil
}
