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
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wxdecode/rtlaok/bitbuf"
	"github.com/wxdecode/rtlaok/parse"

	_ "github.com/wxdecode/rtlaok/aok5055"
)

var (
	buildTag   = "dev"     // v#.#.#
	buildDate  = "unknown" // date -u '+%Y-%m-%d'
	commitHash = "unknown" // git rev-parse HEAD
)

// emitter serializes filter evaluation and encoding of decoded messages
// across the per-file decode goroutines.
type emitter struct {
	mu  sync.Mutex
	enc Encoder
	fc  parse.FilterChain
}

func (e *emitter) emit(msg parse.LogMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.fc.Match(msg.Message) {
		return nil
	}

	return e.enc.Encode(msg)
}

// decodeFile reads one capture file of demodulated bit rows, one row per
// line, and emits every reading that survives decoding and filtering. Rows
// are either '0'/'1' strings or "{bitlen}hex" dumps; blank lines and
// '#'-comments are skipped.
func decodeFile(name string, r io.Reader, p parse.Parser, e *emitter) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<16), 1<<20)

	row := 0
	for scanner.Scan() {
		row++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := log.Fields{"file": name, "row": row}

		buf, err := bitbuf.Parse(line)
		if err != nil {
			log.WithFields(fields).WithError(err).Warn("skipping unparsable row")
			continue
		}

		msg, err := p.Parse(buf)
		if err != nil {
			// Not-found, truncation and mismatch are expected outcomes of a
			// noisy capture; move on to the next row.
			log.WithFields(fields).WithError(err).Debug("no reading")
			continue
		}

		logMsg := parse.LogMessage{
			Time:    time.Now(),
			File:    name,
			Row:     row,
			Type:    msg.MsgType(),
			Message: msg,
		}

		if err := e.emit(logMsg); err != nil {
			return errors.Wrap(err, "encode message")
		}
	}

	return errors.Wrapf(scanner.Err(), "read %s", name)
}

func main() {
	RegisterFlags()
	EnvOverride()
	flag.Parse()

	if *version {
		fmt.Println("Build Tag: ", buildTag)
		fmt.Println("Build Date:", buildDate)
		fmt.Println("Commit:    ", commitHash)
		os.Exit(0)
	}

	if *configFile != "" {
		if err := loadConfig(*configFile); err != nil {
			log.WithError(err).Fatal("config")
		}
	}

	HandleFlags()

	p, err := parse.NewParser(*msgType, parse.Options{
		MinRepeats:   *minRepeats,
		PreambleBits: *preambleBits,
	})
	if err != nil {
		log.WithError(err).Fatal("new parser")
	}

	cfg := p.Cfg()
	log.WithFields(log.Fields{
		"protocol":     cfg.Protocol,
		"preamble":     cfg.Preamble,
		"preamblebits": cfg.PreambleBits,
		"framebits":    cfg.FrameBits,
		"minrepeats":   cfg.MinRepeats,
	}).Info("decoder ready")

	e := &emitter{enc: encoder}
	if *unique {
		e.fc.Add(NewUniqueFilter())
	}
	if len(sensorID.UintMap) > 0 {
		e.fc.Add(sensorID)
	}

	if flag.NArg() == 0 {
		if err := decodeFile("/dev/stdin", os.Stdin, p, e); err != nil {
			log.WithError(err).Fatal("decode")
		}
		return
	}

	// Captures are independent, decode each file on its own goroutine.
	var g errgroup.Group
	for _, name := range flag.Args() {
		name := name
		g.Go(func() error {
			f, err := os.Open(name)
			if err != nil {
				return errors.Wrap(err, "open capture")
			}
			defer f.Close()

			return decodeFile(name, f, p, e)
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("decode")
	}
}
