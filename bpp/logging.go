package bpp

import "github.com/sirupsen/logrus"

// FieldLogger is the structured-logging collaborator: the engine writes
// one debug entry through it for every packet it sends or receives. It
// is satisfied directly by *logrus.Logger and *logrus.Entry; it is
// declared locally with only the one method the engine calls (rather
// than logrus.FieldLogger's full interface), though that method's
// signature still uses logrus types.
type FieldLogger interface {
	WithFields(fields logrus.Fields) *logrus.Entry
}

// CensorBlank marks a byte range of a logged payload that must be
// blanked out before it reaches the log (passwords, key material).
type CensorBlank struct {
	Offset, Length int
}

// CensorFunc computes the blank ranges for one packet's payload, given
// its type and direction.
type CensorFunc func(typ byte, outgoing bool, payload []byte) []CensorBlank

func (e *Engine) logPacket(outgoing bool, seq uint32, typ byte, payload []byte) {
	if e.Debugf != nil {
		shown := payload
		if e.Censor != nil {
			shown = applyCensor(payload, e.Censor(typ, outgoing, payload))
		}
		e.Debugf("pkt type=%d seq=%d len=%d payload=%x", typ, seq, len(payload), shown)
	}
	if e.Logger == nil {
		return
	}
	e.Logger.WithFields(logrus.Fields{
		"seq":        seq,
		"type":       typ,
		"outgoing":   outgoing,
		"payloadLen": len(payload),
	}).Debug("ssh2 packet")
}

func applyCensor(payload []byte, blanks []CensorBlank) []byte {
	if len(blanks) == 0 {
		return payload
	}
	out := append([]byte(nil), payload...)
	for _, b := range blanks {
		end := b.Offset + b.Length
		if b.Offset < 0 || end > len(out) || end < b.Offset {
			continue
		}
		for i := b.Offset; i < end; i++ {
			out[i] = '*'
		}
	}
	return out
}
