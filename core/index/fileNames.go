package index

// index/IndexFileNames.java

const (
	// Extension of the field infos file
	FIELD_INFOS_EXTENSION = "fnm"
	// Extension of the terms file
	TERMS_EXTENSION = "tis"
	// Extension of the terms index file
	TERMS_INDEX_EXTENSION = "tii"
	// Extension of the term bloom filter file
	TERMS_BLOOM_EXTENSION = "tbf"
	// Extension of the freq postings file
	FREQ_EXTENSION = "frq"
	// Extension of the prox postings file
	PROX_EXTENSION = "prx"
	// Extension of the deleted documents file
	DELETES_EXTENSION = "del"
)
