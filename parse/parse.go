package parse

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/wxdecode/rtlaok/bitbuf"
	"github.com/wxdecode/rtlaok/csv"
)

const (
	TimeFormat = "2006-01-02T15:04:05.000"
)

var (
	parserMutex sync.Mutex
	parsers     = make(map[string]NewParserFunc)
)

// Options carries decoder tuning shared by all registered parsers. Zero
// values select each parser's defaults.
type Options struct {
	// MinRepeats is the number of consecutive frame copies that must agree
	// before a reading is produced.
	MinRepeats int

	// PreambleBits is the number of leading preamble bits that must match
	// during frame synchronization. Parsers may accept fewer bits than the
	// full preamble to cope with receivers that clip its tail.
	PreambleBits int
}

type NewParserFunc func(opts Options) (Parser, error)

// Given a name and a parser constructor, register a parser for use.
// Later used by underscore importing each parser package:
//
//	import _ "github.com/wxdecode/rtlaok/aok5055"
func Register(name string, parserFn NewParserFunc) {
	parserMutex.Lock()
	defer parserMutex.Unlock()

	if parserFn == nil {
		panic("parser: new parser func is nil")
	}
	if _, dup := parsers[name]; dup {
		panic(fmt.Sprintf("parser: parser already registered (%s)", name))
	}
	parsers[name] = parserFn
}

// Given a name and options, lookup the parser and make a new one.
func NewParser(name string, opts Options) (Parser, error) {
	parserMutex.Lock()
	defer parserMutex.Unlock()

	if parserFn, exists := parsers[name]; exists {
		return parserFn(opts)
	}
	return nil, fmt.Errorf("invalid message type: %q", name)
}

// Config describes a parser's frame layout for logging back to the user.
type Config struct {
	Protocol string
	Preamble string

	PreambleBits int
	FrameBits    int
	MinRepeats   int
}

// A Parser decodes one row of demodulated bits into a message. Parsers hold
// no per-call state: a single parser may decode independent rows from
// multiple goroutines.
type Parser interface {
	Parse(*bitbuf.Buffer) (Message, error)
	Cfg() Config
}

type Message interface {
	csv.Recorder
	MsgType() string
	SensorID() uint8
	Raw() []byte
}

// A LogMessage associates a message with a point in time and the capture
// file and row it was decoded from.
type LogMessage struct {
	Time time.Time `xml:",attr"`
	File string    `xml:",attr"`
	Row  int       `xml:",attr"`
	Type string    `xml:",attr"`
	Message
}

func (msg LogMessage) String() string {
	return fmt.Sprintf("{Time:%s File:%s Row:%d %s:%s}",
		msg.Time.Format(TimeFormat), msg.File, msg.Row, msg.MsgType(), msg.Message,
	)
}

func (msg LogMessage) StringNoSource() string {
	return fmt.Sprintf("{Time:%s %s:%s}", msg.Time.Format(TimeFormat), msg.MsgType(), msg.Message)
}

func (msg LogMessage) Record() (r []string) {
	r = append(r, msg.Time.Format(time.RFC3339Nano))
	r = append(r, msg.File)
	r = append(r, strconv.Itoa(msg.Row))
	r = append(r, msg.Message.Record()...)
	return r
}

// A FilterChain takes a list of filters and applies them iteratively to
// messages sent through the chain.
type FilterChain []MessageFilter

func (fc *FilterChain) Add(filter MessageFilter) {
	*fc = append(*fc, filter)
}

func (fc FilterChain) Match(msg Message) bool {
	if len(fc) == 0 {
		return true
	}

	for _, filter := range fc {
		if !filter.Filter(msg) {
			return false
		}
	}

	return true
}

type MessageFilter interface {
	Filter(Message) bool
}
