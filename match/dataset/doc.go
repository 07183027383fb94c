// Package dataset synthesizes labeled scenarios and reads and writes the
// dataset file shared with the trainer.
package dataset
