// SPDX-License-Identifier: MIT

package playlist

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

var (
	attrSanitizer  = strings.NewReplacer(`"`, "'", "\r", " ", "\n", " ")
	titleSanitizer = strings.NewReplacer("\r", " ", "\n", " ")
)

// WriteM3U serializes channels in the same extended M3U format Parse reads.
// Quotes in attribute values and line breaks in any field are neutralized so
// every channel is written as exactly one metadata line plus one URL line.
func WriteM3U(w io.Writer, channels []Channel) error {
	buf := &bytes.Buffer{}
	buf.WriteString("#EXTM3U\n")
	for _, ch := range channels {
		fmt.Fprintf(buf,
			`#EXTINF:-1 group-title="%s" tvg-logo="%s",%s`+"\n",
			attrSanitizer.Replace(ch.Category),
			attrSanitizer.Replace(ch.LogoURL),
			titleSanitizer.Replace(ch.Title),
		)
		buf.WriteString(titleSanitizer.Replace(ch.StreamURL) + "\n")
	}
	_, err := io.Copy(w, buf)
	return err
}
