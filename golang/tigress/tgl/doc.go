//Package tgl infers transcription factor → target gene links from expression data
//with stability selection over least angle regression paths.
//
//For every target gene, Infer repeatedly draws half of the experiments, multiplies each
//standardized TF profile by a random factor in [alpha, 1] and runs LARS of the target
//on the TFs. The score of an edge at step s is the fraction of trials in which the TF
//entered the LARS path within its first s steps. Randomness of a trial depends only on
//(seed, target index, trial index), so results are identical for any number of threads.
//
//	em, err := tgl.ReadExpressionTSV("expression.tsv")
//	scores, err := tgl.Infer(ctx, em, tfs, targets, tgl.DefaultParams())
//	edges := scores.Ranking(scores.Steps() - 1)
package tgl
