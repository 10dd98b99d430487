package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name        string
		cb          *tele.Callback
		wantUnique  string
		wantPayload string
	}{
		{"nil", nil, "", ""},
		{"encoded", &tele.Callback{Data: "\fbuy|prod-1|5"}, "buy", "prod-1|5"},
		{"no payload", &tele.Callback{Data: "\fcart"}, "cart", ""},
		{"routed", &tele.Callback{Unique: "product", Data: "p-9"}, "product", "p-9"},
		{"plain", &tele.Callback{Data: "menu"}, "menu", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, p := ParseCallbackData(tc.cb)
			assert.Equal(t, tc.wantUnique, u)
			assert.Equal(t, tc.wantPayload, p)
		})
	}
}

func TestJoinSplit(t *testing.T) {
	assert.Equal(t, "menu", Join("menu", ""))
	assert.Equal(t, "remove|item-1", Join("remove", "item-1"))

	u, p := Split("buy|prod-1|10")
	assert.Equal(t, "buy", u)
	assert.Equal(t, "prod-1|10", p)
}
