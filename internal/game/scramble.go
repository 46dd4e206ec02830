// internal/game/scramble.go
//
// Letter scrambling (Fisher–Yates, bounded retries).

package game

import (
	"math/rand"
	"strings"
)

// Scramble returns an uppercase permutation of word's letters that differs
// from word. It reshuffles up to ScrambleAttempts times; words with too few
// distinct letters (e.g. "aaa") may come back unchanged.
func Scramble(word string) string {
	return scrambleWith(word, rand.Intn)
}

func scrambleWith(word string, intn func(n int) int) string {
	letters := []rune(word)
	scrambled := word
	for attempts := 0; scrambled == word && attempts < ScrambleAttempts; attempts++ {
		// Fisher–Yates
		for i := len(letters) - 1; i > 0; i-- {
			j := intn(i + 1)
			letters[i], letters[j] = letters[j], letters[i]
		}
		scrambled = string(letters)
	}
	return strings.ToUpper(scrambled)
}
