package reward

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	redeemCodePrefix = "GUJ"
	redeemSuffixLen  = 4
	base36Alphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// CodeGenerator выдаёт коды погашения для новых записей журнала.
type CodeGenerator interface {
	Generate(now time.Time) (string, error)
}

// RandomCodeGenerator строит код вида GUJ + миллисекунды в base36 + 4 случайных символа.
// Уникальность гарантирует ограничение UNIQUE(redeem_code) в хранилище.
type RandomCodeGenerator struct{}

func (RandomCodeGenerator) Generate(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(redeemCodePrefix)
	b.WriteString(strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))

	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < redeemSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(base36Alphabet[n.Int64()])
	}
	return b.String(), nil
}
