// game/deck.go
package game

import (
	"math/rand"

	"github.com/wfunc/huntserver/models"
)

// NewDeck 按固定顺序构建整副15张角色牌
func NewDeck() []models.Card {
	deck := make([]models.Card, 0, models.DeckSize)
	for _, kind := range models.CardKinds() {
		for i := 0; i < models.CopiesPerKind; i++ {
			deck = append(deck, kind)
		}
	}
	return deck
}

// ShuffleDeck 原地洗牌，每个排列等概率
func ShuffleDeck(rng *rand.Rand, deck []models.Card) {
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// RollDie 掷一次先手骰，结果在 [1, DiceSides]
func RollDie(rng *rand.Rand) int {
	return rng.Intn(models.DiceSides) + 1
}

// FirstHunter 在成员顺序里取严格最大点数的最早成员。
// 平点不重掷，先到先得
func FirstHunter(memberIDs []string, rolls map[string]int) string {
	highest := 0
	winner := ""
	for _, id := range memberIDs {
		if rolls[id] > highest {
			highest = rolls[id]
			winner = id
		}
	}
	return winner
}
