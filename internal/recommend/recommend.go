// Package recommend ранжирует товары каталога по общим с найденным товаром ключевым словам.
package recommend

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
)

// Limit — максимум рекомендаций.
const Limit = 5

// minKeywordLen: токены из стольких рун и короче отбрасываются.
const minKeywordLen = 2

var stopWords = map[string]bool{
	"de":   true,
	"para": true,
	"el":   true,
	"la":   true,
	"los":  true,
	"las":  true,
	"un":   true,
	"una":  true,
}

// Recommendation — товар и число ключевых слов, общих с исходным.
type Recommendation struct {
	Product domain.Product
	Score   int
}

// Keywords возвращает слова названия в нижнем регистре без стоп-слов и коротких токенов.
func Keywords(name string) []string {
	fields := strings.Fields(strings.ToLower(name))

	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= minKeywordLen || stopWords[f] {
			continue
		}
		keywords = append(keywords, f)
	}

	return keywords
}

// Score считает, сколько ключевых слов входит в название.
func Score(name string, keywords []string) int {
	lower := strings.ToLower(name)

	score := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}

	return score
}

// ForProduct возвращает до Limit товаров из all по убыванию оценки.
// При равной оценке сохраняется порядок all. Исходный товар исключается по ID.
func ForProduct(product domain.Product, all []domain.Product) []Recommendation {
	if strings.TrimSpace(product.Name) == "" {
		return nil
	}

	keywords := Keywords(product.Name)
	if len(keywords) == 0 {
		return nil
	}

	ranked := make([]Recommendation, 0)
	for _, candidate := range all {
		if candidate.ID == product.ID {
			continue
		}

		if score := Score(candidate.Name, keywords); score > 0 {
			ranked = append(ranked, Recommendation{Product: candidate, Score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > Limit {
		ranked = ranked[:Limit]
	}

	return ranked
}
