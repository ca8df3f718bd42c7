package triton

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Tokenizer turns text into model token ids.
type Tokenizer interface {
	Encode(text string) ([]int, error)
}

// TokenizerLoader builds a Tokenizer from a tokenizer.json file.
type TokenizerLoader func(path string) (Tokenizer, error)

type hfTokenizer struct {
	tk *tokenizer.Tokenizer
}

// LoadTokenizer reads a Hugging Face tokenizer.json.
func LoadTokenizer(path string) (Tokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	return &hfTokenizer{tk: tk}, nil
}

func (t *hfTokenizer) Encode(text string) ([]int, error) {
	enc, err := t.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, err
	}
	return enc.GetIds(), nil
}

// Batch is a padded [B, L] token batch.
type Batch struct {
	InputIDs      []int64
	AttentionMask []int64
	Rows          int
	Length        int
}

// Encode tokenizes texts and right-pads them to the longest sequence.
func Encode(tk Tokenizer, texts []string, padID int) (*Batch, error) {
	seqs := make([][]int, len(texts))
	length := 0
	for i, text := range texts {
		ids, err := tk.Encode(text)
		if err != nil {
			return nil, fmt.Errorf("tokenize row %d: %w", i, err)
		}
		seqs[i] = ids
		if len(ids) > length {
			length = len(ids)
		}
	}
	// Triton rejects zero-length dimensions.
	if length == 0 {
		length = 1
	}

	b := &Batch{
		InputIDs:      make([]int64, len(texts)*length),
		AttentionMask: make([]int64, len(texts)*length),
		Rows:          len(texts),
		Length:        length,
	}
	for i, ids := range seqs {
		row := i * length
		for j := 0; j < length; j++ {
			if j < len(ids) {
				b.InputIDs[row+j] = int64(ids[j])
				b.AttentionMask[row+j] = 1
			} else {
				b.InputIDs[row+j] = int64(padID)
			}
		}
	}
	return b, nil
}
