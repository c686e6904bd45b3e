package narrator

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenizers caches one encoder per model, including failed lookups (nil).
var tokenizers sync.Map

func encodingFor(model string) *tiktoken.Tiktoken {
	if v, ok := tokenizers.Load(model); ok {
		return v.(*tiktoken.Tiktoken)
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// unknown to tiktoken (local models): approximate with cl100k
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			tke = nil
		}
	}
	tokenizers.Store(model, tke)
	return tke
}

// estimateTokens counts tokens of texts with the model's tokenizer.
// ok is false when no tokenizer is available.
func estimateTokens(model string, texts ...string) (n int, ok bool) {
	tke := encodingFor(model)
	if tke == nil {
		return 0, false
	}
	for _, t := range texts {
		n += len(tke.Encode(t, nil, nil))
	}
	return n, true
}
