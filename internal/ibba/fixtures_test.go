package ibba

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(raw)
}

// listingHTML renders a listing page advertising advertised brokers with
// blocks broker blocks linking to profileURL(i).
func listingHTML(advertised, blocks int, profileURL func(i int) string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="content">`)
	fmt.Fprintf(&b, `<h2>%d Business Brokers</h2>`, advertised)
	b.WriteString(`<div class="broker-listings">`)
	for i := 0; i < blocks; i++ {
		fmt.Fprintf(&b, `<div class="broker-block"><a href="%s"><h3> Broker %d </h3></a></div>`, profileURL(i), i)
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

func absoluteProfile(i int) string {
	return fmt.Sprintf("https://www.ibba.org/broker/broker-%02d/", i)
}
