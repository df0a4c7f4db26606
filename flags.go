// RTLAOK - A decoder for Renkforce AOK-5055 weather station transmissions.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/wxdecode/rtlaok/csv"
	"github.com/wxdecode/rtlaok/parse"
)

var configFile = flag.String("config", "", "TOML config file, flags given explicitly take precedence")

var msgType = flag.String("msgtype", "aok5055", "message type to decode")

var minRepeats = flag.Int("minrepeats", 0, "consecutive frame copies that must agree, 0 for decoder default")

var preambleBits = flag.Int("preamblebits", 0, "preamble bits that must match during sync, 0 for decoder default; lower to 22 for receivers that clip the preamble tail")

var sensorID SensorIDFilter

var unique = flag.Bool("unique", false, "suppress duplicate readings from each station")

var encoder Encoder
var format = flag.String("format", "plain", "decoded message output format: plain, csv, json, or xml")

var version = flag.Bool("version", false, "display build date and commit hash")

func RegisterFlags() {
	sensorID = SensorIDFilter{make(UintMap)}

	flag.Var(sensorID, "filterid", "display only messages matching a rolling id in a comma-separated list of ids.")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s: [flags] [capture files, stdin if none]\n", os.Args[0])
		flag.PrintDefaults()
	}
}

func EnvOverride() {
	flag.VisitAll(func(f *flag.Flag) {
		envName := "RTLAOK_" + strings.ToUpper(f.Name)
		flagValue := os.Getenv(envName)
		if flagValue == "" {
			return
		}

		if err := flag.Set(f.Name, flagValue); err != nil {
			log.WithFields(log.Fields{
				"env":   envName,
				"flag":  f.Name,
				"value": flagValue,
			}).WithError(err).Warn("environment variable failed to override flag")
		} else {
			log.WithFields(log.Fields{
				"env":   envName,
				"flag":  f.Name,
				"value": flagValue,
			}).Info("environment variable overrides flag")
		}
	})
}

func HandleFlags() {
	*format = strings.ToLower(*format)
	switch *format {
	case "plain":
		encoder = PlainEncoder{}
	case "csv":
		encoder = csv.NewEncoder(os.Stdout)
	case "json":
		encoder = json.NewEncoder(os.Stdout)
	case "xml":
		encoder = xml.NewEncoder(os.Stdout)
	default:
		log.Fatalf("invalid format: %q", *format)
	}
}

// JSON and XML both implement this interface so we can simplify log output
// formatting.
type Encoder interface {
	Encode(interface{}) error
}

type UintMap map[uint]bool

func (m UintMap) String() (s string) {
	var values []string
	for k := range m {
		values = append(values, strconv.FormatUint(uint64(k), 10))
	}
	return strings.Join(values, ",")
}

func (m UintMap) Set(value string) error {
	values := strings.Split(value, ",")

	for _, v := range values {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}

		m[uint(n)] = true
	}

	return nil
}

type SensorIDFilter struct {
	UintMap
}

func (m SensorIDFilter) Filter(msg parse.Message) bool {
	return m.UintMap[uint(msg.SensorID())]
}

// UniqueFilter drops readings whose raw frame matches the last one seen for
// the same rolling id. Matching on the full frame keeps distinct readings
// from colliding when stations share an id.
type UniqueFilter map[uint8][]byte

func NewUniqueFilter() UniqueFilter {
	return make(UniqueFilter)
}

func (uf UniqueFilter) Filter(msg parse.Message) bool {
	raw := msg.Raw()
	id := msg.SensorID()

	if val, ok := uf[id]; ok && bytes.Equal(val, raw) {
		return false
	}

	uf[id] = raw
	return true
}

type PlainEncoder struct{}

func (pe PlainEncoder) Encode(msg interface{}) (err error) {
	_, err = fmt.Println(msg)
	return
}
