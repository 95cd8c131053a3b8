// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package microdata_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"codeberg.org/readeck/microdata/pkg/microdata"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		value    string
		tokens   []string
		distinct []string
	}{
		{"", []string{}, []string{}},
		{"   \t\n ", []string{}, []string{}},
		{"name", []string{"name"}, []string{"name"}},
		{"  name  ", []string{"name"}, []string{"name"}},
		{"a b\ta\n\fc\r", []string{"a", "b", "a", "c"}, []string{"a", "b", "c"}},
		{"a\u00a0b c", []string{"a\u00a0b", "c"}, []string{"a\u00a0b", "c"}},
		{"https://schema.org/Thing  https://schema.org/Place", []string{
			"https://schema.org/Thing", "https://schema.org/Place",
		}, []string{
			"https://schema.org/Thing", "https://schema.org/Place",
		}},
	}

	for i, test := range tests {
		t.Run(strconv.Itoa(i+1), func(t *testing.T) {
			require.Equal(t, test.tokens, microdata.Tokens(test.value))
			require.Equal(t, test.distinct, microdata.UniqueTokens(test.value))
		})
	}
}
