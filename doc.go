// Package trackio manages cell tracking datasets stored in .trk and .trks
// archives, the tar-based container format used for training cell trackers.
//
// The subpackages cover the dataset lifecycle:
//
//   - archive: read and write .trk/.trks containers
//   - relabel: rewrite per-frame label masks to globally unique track ids
//   - stats: summary statistics over tracked movies and their lineages
//   - sampling: training pair estimates for dataset sizing
//   - resize: spatial resampling of raw and annotated frames
//   - dataset: folder compilation, fetch and publish workflows
//   - blobstore, registry: remote storage and the dataset catalog
//
// Basic usage:
//
//	ar, err := archive.Load("train.trks")
//	if err != nil {
//		log.Fatal(err)
//	}
//	n, err := sampling.CountPairs(ar.Y, 0.5, tensor.ChannelsLast)
package trackio
