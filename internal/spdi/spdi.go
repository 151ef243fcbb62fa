// Package spdi translates VCF-style coordinates into SPDI identifiers
// (sequence:position:deletion:insertion) on GRCh38 RefSeq accessions.
package spdi

import (
	"errors"
	"fmt"
	"strings"
)

// Assembly is the only reference assembly modeled by the accession table.
const Assembly = "GRCh38"

// ErrUnknownChromosome is returned for chromosome labels without a GRCh38 accession.
var ErrUnknownChromosome = errors.New("unknown chromosome")

// accessions maps chromosome names to GRCh38 RefSeq accessions.
var accessions = map[string]string{
	"1":  "NC_000001.11",
	"2":  "NC_000002.12",
	"3":  "NC_000003.12",
	"4":  "NC_000004.12",
	"5":  "NC_000005.10",
	"6":  "NC_000006.12",
	"7":  "NC_000007.14",
	"8":  "NC_000008.11",
	"9":  "NC_000009.12",
	"10": "NC_000010.11",
	"11": "NC_000011.10",
	"12": "NC_000012.12",
	"13": "NC_000013.11",
	"14": "NC_000014.9",
	"15": "NC_000015.10",
	"16": "NC_000016.10",
	"17": "NC_000017.11",
	"18": "NC_000018.10",
	"19": "NC_000019.10",
	"20": "NC_000020.11",
	"21": "NC_000021.9",
	"22": "NC_000022.11",
	"X":  "NC_000023.11",
	"Y":  "NC_000024.10",
	"MT": "NC_012920.1",
	"M":  "NC_012920.1", // chrM spelling used by UCSC-style VCFs
}

// Accession returns the RefSeq accession for a chromosome name.
// A leading "chr" prefix is ignored.
func Accession(chrom string) (string, bool) {
	acc, ok := accessions[strings.TrimPrefix(chrom, "chr")]
	return acc, ok
}

// FromVariant formats a 1-based VCF variant as an SPDI identifier,
// e.g. ("chr17", 43093268, "G", "A") -> "NC_000017.11:43093267:G:A".
func FromVariant(chrom string, pos int64, ref, alt string) (string, error) {
	acc, ok := Accession(chrom)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownChromosome, chrom)
	}
	return fmt.Sprintf("%s:%d:%s:%s", acc, pos-1, ref, alt), nil
}
