package training

import (
	"context"
	"fmt"
	"time"

	"github.com/BerylCAtieno/watch-recommender/internal/forest"
	"github.com/BerylCAtieno/watch-recommender/internal/logging"
)

// Grid lists the hyperparameter values to search. A MaxDepth of 0 means
// unlimited depth.
type Grid struct {
	NEstimators    []int
	MaxDepth       []int
	MinSamplesLeaf []int
	MaxFeatures    []forest.MaxFeatures
}

func DefaultGrid() Grid {
	return Grid{
		NEstimators:    []int{100, 200, 300},
		MaxDepth:       []int{10, 20, 30, 0},
		MinSamplesLeaf: []int{1, 2, 5},
		MaxFeatures:    []forest.MaxFeatures{forest.MaxFeaturesAuto, forest.MaxFeaturesSqrt},
	}
}

// Candidates expands the grid in a fixed order, varying the last parameter
// fastest.
func (g Grid) Candidates(seed int64) []forest.Params {
	var out []forest.Params
	for _, n := range g.NEstimators {
		for _, d := range g.MaxDepth {
			for _, leaf := range g.MinSamplesLeaf {
				for _, mf := range g.MaxFeatures {
					out = append(out, forest.Params{
						NEstimators:    n,
						MaxDepth:       d,
						MinSamplesLeaf: leaf,
						MaxFeatures:    mf,
						Seed:           seed,
					})
				}
			}
		}
	}
	return out
}

type CandidateResult struct {
	Params     forest.Params
	FoldScores []float64
	MeanScore  float64
}

type SearchResult struct {
	Best      forest.Params
	BestScore float64
	Results   []CandidateResult
}

// GridSearch scores every candidate with stratified k-fold cross-validation
// on accuracy. The first candidate with the highest mean score wins.
func GridSearch(ctx context.Context, x [][]float64, y []int, numClasses int, grid Grid, folds int, seed int64) (*SearchResult, error) {
	candidates := grid.Candidates(seed)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("training: empty parameter grid")
	}
	splits, err := StratifiedFolds(y, folds)
	if err != nil {
		return nil, err
	}

	log := logging.With("grid-search")
	log.Info().
		Int("candidates", len(candidates)).
		Int("folds", folds).
		Int("fits", len(candidates)*folds).
		Msg("starting grid search")

	res := &SearchResult{Results: make([]CandidateResult, 0, len(candidates))}
	best := -1
	for ci, params := range candidates {
		start := time.Now()
		cr := CandidateResult{Params: params, FoldScores: make([]float64, 0, folds)}

		for _, testIdx := range splits {
			trainIdx := complement(len(y), testIdx)
			xTrain, yTrain := selectRows(x, y, trainIdx)
			xVal, yVal := selectRows(x, y, testIdx)

			clf, err := forest.Fit(ctx, xTrain, yTrain, numClasses, params)
			if err != nil {
				return nil, fmt.Errorf("candidate %s: %w", params, err)
			}
			score, err := clf.Score(xVal, yVal)
			if err != nil {
				return nil, fmt.Errorf("candidate %s: %w", params, err)
			}
			cr.FoldScores = append(cr.FoldScores, score)
		}

		cr.MeanScore = mean(cr.FoldScores)
		res.Results = append(res.Results, cr)
		if best < 0 || cr.MeanScore > res.Results[best].MeanScore {
			best = ci
		}

		log.Debug().
			Str("params", params.String()).
			Floats64("fold_scores", cr.FoldScores).
			Float64("mean", cr.MeanScore).
			Dur("elapsed", time.Since(start)).
			Msg("candidate scored")
	}

	res.Best = res.Results[best].Params
	res.BestScore = res.Results[best].MeanScore
	return res, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}
