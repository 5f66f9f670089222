package protocol

import "fmt"

// NetModule is the generic sub-protocol envelope: a u16 module id followed
// by a module-specific payload. Modules without structured decoding keep
// their raw payload.
type NetModule struct {
	ID      uint16
	Payload []byte
}

func (NetModule) MsgType() byte { return MsgNetModule }

// NetModuleText is the decoded text/chat module: a command tag and message
// text, both with 7-bit packed length prefixes.
type NetModuleText struct {
	Command string
	Text    string
}

func (NetModuleText) MsgType() byte { return MsgNetModule }

// decodeNetModule decodes the envelope and, for the text module, its
// payload. A 7-bit length violation fails only this module decode; the
// framing above it is unaffected.
func (c *Codec) decodeNetModule(r *Reader) (Message, error) {
	id, err := r.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("net module id: %w", err)
	}
	if id != ModuleText {
		payload, err := r.ReadBytes(r.Remaining())
		if err != nil {
			return nil, err
		}
		return NetModule{ID: id, Payload: payload}, nil
	}
	command, err := r.ReadVarString()
	if err != nil {
		return nil, fmt.Errorf("text module command: %w", err)
	}
	text, err := r.ReadVarString()
	if err != nil {
		return nil, fmt.Errorf("text module text: %w", err)
	}
	return NetModuleText{Command: command, Text: text}, nil
}
