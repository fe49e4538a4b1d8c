package command

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func parseXML(t *testing.T, data []byte) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))
	return doc
}
