// Package logger routes training metrics to per-scope meter groups and an
// optional visualization backend.
//
// Keys have the form "<scope>/<name>" where scope is "train" or "eval".
// Train metrics are dumped to train.csv, eval metrics to eval.csv, both in
// the directory given to New.
//
//	l, err := logger.New(logger.Options{Dir: "runs/exp1"})
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//
//	l.Log("train/episode_reward", reward, step)
//	l.Log("train/fps", fps, step)
//	l.Dump(step, logger.Train)
//
//	err = l.WithDump(step, logger.Eval, func(log logger.LogFunc) error {
//	    if err := log("episode_reward", evalReward); err != nil {
//	        return err
//	    }
//	    return log("episode_length", evalLength)
//	})
package logger
