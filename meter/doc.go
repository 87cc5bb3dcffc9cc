// Package meter accumulates running averages of scalar training statistics
// and flushes them, once per dump, to a CSV log and a console line.
//
// # Basic Usage
//
//	group, err := meter.NewGroup("logs/train.csv", output.TrainSchema)
//	if err != nil {
//	    return err
//	}
//	defer group.Close()
//
//	group.Log("train/episode_reward", 12.5, 1)
//	group.Log("train/episode_reward", 13.5, 1)
//	group.Log("train/episode", 3, 1)
//
//	// Writes {episode: 3, episode_reward: 13, frame: 1000} to train.csv,
//	// prints one console line and clears the meters.
//	if err := group.Dump(1000, "train"); err != nil {
//	    return err
//	}
//
// # CSV Merge Policy
//
// The first dump to a file that already exists keeps only the leading rows
// whose episode is strictly lower than the dumped record's episode, so a
// resumed run overwrites the tail it is about to replay. Scanning stops at
// the first row that is not lower; files are assumed to be sorted by episode.
//
// # Thread Safety
//
// Groups and sinks are not safe for concurrent use.
package meter
