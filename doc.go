/*
RTLAOK decodes Renkforce AOK-5055 outdoor weather station transmissions from
captures of demodulated bits. The station keys its payload with OOK pulse
width modulation at inverted polarity and repeats each 96-bit frame five
times; the decoder synchronizes on the 0xAAA598 preamble, requires several
consecutive copies to agree byte for byte, and decodes temperature, humidity,
wind, rain and battery state from the first validated copy.

Input is one capture row per line, either a string of '0' and '1' characters
or the compact "{bitlen}hexdigits" row dump, read from the files given as
arguments or from stdin.

Command-line Flags:

	-config=""

Path to a TOML config file. Keys mirror the flag surface (msgtype,
minrepeats, preamblebits, format, unique, filterid). Flags given explicitly
on the command line take precedence over file values.

	-msgtype="aok5055"

Message type to decode.

	-minrepeats=0

Number of consecutive frame copies that must agree byte for byte, excluding
each copy's trailing pause byte. 0 selects the decoder default (4, the
station transmits 5). Must be at least 3.

	-preamblebits=0

Leading preamble bits that must match during frame synchronization. 0
selects the decoder default (24, the full preamble). May be lowered to 22
for receivers, RFM69 in particular, that clip the tail of the preamble.

	-format="plain"

Sets the output format. Defaults to plain.

Plain text is formatted using the following format string:

	{Time:%s File:%s Row:%d AOK5055:{Temperature:%.1fC Humidity:%d%% Wind:%dkm/h@%s(%.1f) Rain:%.2fmm Battery:%s Raw:%02x}}

For json and xml output each line is an element, there is no root node.

	-filterid=

Display only messages matching a rolling id in a comma-separated list of
ids. The station draws a fresh id nibble at each power cycle.

	-unique=false

Suppress duplicate readings from each station.

Every flag may also be supplied through the environment with an RTLAOK_
prefix, e.g. RTLAOK_FORMAT=json.
*/
package main
