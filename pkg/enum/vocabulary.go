package enum

// VocabularyVersion identifies the snapshot of service vocabularies compiled
// into DefaultVocabularies. Bump it whenever the tables below are refreshed.
const VocabularyVersion = "2024-06"

// Vocabulary names used by the query builder.
const (
	Rank                = "rank"
	NameType            = "nameType"
	TaxonomicStatus     = "status"
	NomenclaturalStatus = "nomenclaturalStatus"
	Habitat             = "habitat"
	ThreatStatus        = "threat"
	SpeciesFacet        = "facet"
	Language            = "language"
	Country             = "country"
	Continent           = "continent"
	GbifRegion          = "gbifRegion"
	BasisOfRecord       = "basisOfRecord"
	OccurrenceStatus    = "occurrenceStatus"
	License             = "license"
	MediaType           = "mediaType"
	DownloadFormat      = "format"

	// SpeciesResultType names the sub-resources of a name usage.
	SpeciesResultType = "resultType"
	// InventoryType names the occurrence inventory counts.
	InventoryType = "inventory"
)

// Vocabularies maps a vocabulary name to its accepted values, in the order the
// service documents them.
type Vocabularies map[string][]string

// DefaultVocabularies returns a fresh copy of the compiled-in vocabularies.
func DefaultVocabularies() Vocabularies {
	v := make(Vocabularies, len(defaultVocabularies))
	for name, values := range defaultVocabularies {
		v[name] = append([]string(nil), values...)
	}
	return v
}

var defaultVocabularies = Vocabularies{
	Rank: {
		"DOMAIN", "SUPERKINGDOM", "KINGDOM", "SUBKINGDOM", "INFRAKINGDOM",
		"SUPERPHYLUM", "PHYLUM", "SUBPHYLUM", "INFRAPHYLUM",
		"SUPERCLASS", "CLASS", "SUBCLASS", "INFRACLASS", "PARVCLASS",
		"SUPERLEGION", "LEGION", "SUBLEGION", "INFRALEGION",
		"SUPERCOHORT", "COHORT", "SUBCOHORT", "INFRACOHORT",
		"MAGNORDER", "SUPERORDER", "GRANDORDER", "ORDER", "SUBORDER", "INFRAORDER", "PARVORDER",
		"SUPERFAMILY", "FAMILY", "SUBFAMILY", "INFRAFAMILY",
		"SUPERTRIBE", "TRIBE", "SUBTRIBE", "INFRATRIBE", "SUPRAGENERIC_NAME",
		"GENUS", "SUBGENUS", "INFRAGENUS", "SECTION", "SUBSECTION", "SERIES", "SUBSERIES",
		"INFRAGENERIC_NAME", "SPECIES_AGGREGATE", "SPECIES", "INFRASPECIFIC_NAME", "GREX",
		"SUBSPECIES", "CULTIVAR_GROUP", "CONVARIETY", "INFRASUBSPECIFIC_NAME", "PROLES",
		"RACE", "NATIO", "ABERRATION", "MORPH", "VARIETY", "SUBVARIETY", "FORM", "SUBFORM",
		"PATHOVAR", "BIOVAR", "CHEMOVAR", "MORPHOVAR", "PHAGOVAR", "SEROVAR", "CHEMOFORM",
		"FORMA_SPECIALIS", "CULTIVAR", "STRAIN", "OTHER", "UNRANKED",
	},
	NameType: {
		"SCIENTIFIC", "VIRUS", "HYBRID", "INFORMAL", "CULTIVAR", "CANDIDATUS",
		"OTU", "DOUBTFUL", "PLACEHOLDER", "NO_NAME", "BLACKLISTED",
	},
	TaxonomicStatus: {
		"ACCEPTED", "DOUBTFUL", "SYNONYM", "HETEROTYPIC_SYNONYM",
		"HOMOTYPIC_SYNONYM", "PROPARTE_SYNONYM", "MISAPPLIED",
	},
	NomenclaturalStatus: {
		"LEGITIMATE", "VALIDLY_PUBLISHED", "NEW_COMBINATION", "REPLACEMENT", "CONSERVED",
		"PROTECTED", "CORRECTED", "ORIGINAL_COMBINATION", "NEW_SPECIES", "NEW_GENUS",
		"ALTERNATIVE", "OBSCURE", "ABORTED", "CONSERVED_PROPOSED", "PROVISIONAL", "SUBNUDUM",
		"REJECTED_PROPOSED", "REJECTED_OUTRIGHT_PROPOSED", "DOUBTFUL", "AMBIGUOUS", "CONFUSED",
		"FORGOTTEN", "ORTHOGRAPHIC_VARIANT", "SUPERFLUOUS", "NUDUM", "NULL_NAME", "SUPPRESSED",
		"REJECTED_OUTRIGHT", "REJECTED", "ILLEGITIMATE", "INVALID", "DENIED",
	},
	Habitat: {"MARINE", "FRESHWATER", "TERRESTRIAL"},
	ThreatStatus: {
		"EXTINCT", "EXTINCT_IN_THE_WILD", "REGIONALLY_EXTINCT", "CRITICALLY_ENDANGERED",
		"ENDANGERED", "VULNERABLE", "NEAR_THREATENED", "LEAST_CONCERN", "DATA_DEFICIENT",
		"NOT_APPLICABLE", "NOT_EVALUATED",
	},
	SpeciesFacet: {
		"datasetKey", "higherTaxonKey", "rank", "status", "nomenclaturalStatus",
		"isExtinct", "habitat", "threat", "nameType",
	},
	Language: {
		"aa", "ab", "ae", "af", "ak", "am", "an", "ar", "as", "av", "ay", "az",
		"ba", "be", "bg", "bh", "bi", "bm", "bn", "bo", "br", "bs",
		"ca", "ce", "ch", "co", "cr", "cs", "cu", "cv", "cy",
		"da", "de", "dv", "dz", "ee", "el", "en", "eo", "es", "et", "eu",
		"fa", "ff", "fi", "fj", "fo", "fr", "fy", "ga", "gd", "gl", "gn", "gu", "gv",
		"ha", "he", "hi", "ho", "hr", "ht", "hu", "hy", "hz",
		"ia", "id", "ie", "ig", "ii", "ik", "io", "is", "it", "iu", "ja", "jv",
		"ka", "kg", "ki", "kj", "kk", "kl", "km", "kn", "ko", "kr", "ks", "ku", "kv", "kw", "ky",
		"la", "lb", "lg", "li", "ln", "lo", "lt", "lu", "lv",
		"mg", "mh", "mi", "mk", "ml", "mn", "mr", "ms", "mt", "my",
		"na", "nb", "nd", "ne", "ng", "nl", "nn", "no", "nr", "nv", "ny",
		"oc", "oj", "om", "or", "os", "pa", "pi", "pl", "ps", "pt", "qu",
		"rm", "rn", "ro", "ru", "rw",
		"sa", "sc", "sd", "se", "sg", "si", "sk", "sl", "sm", "sn", "so", "sq", "sr", "ss", "st", "su", "sv", "sw",
		"ta", "te", "tg", "th", "ti", "tk", "tl", "tn", "to", "tr", "ts", "tt", "tw", "ty",
		"ug", "uk", "ur", "uz", "ve", "vi", "vo", "wa", "wo", "xh", "yi", "yo", "za", "zh", "zu",
	},
	Country: {
		"AD", "AE", "AF", "AG", "AI", "AL", "AM", "AO", "AQ", "AR", "AS", "AT", "AU", "AW", "AX", "AZ",
		"BA", "BB", "BD", "BE", "BF", "BG", "BH", "BI", "BJ", "BL", "BM", "BN", "BO", "BQ", "BR", "BS",
		"BT", "BV", "BW", "BY", "BZ",
		"CA", "CC", "CD", "CF", "CG", "CH", "CI", "CK", "CL", "CM", "CN", "CO", "CR", "CU", "CV", "CW",
		"CX", "CY", "CZ",
		"DE", "DJ", "DK", "DM", "DO", "DZ",
		"EC", "EE", "EG", "EH", "ER", "ES", "ET",
		"FI", "FJ", "FK", "FM", "FO", "FR",
		"GA", "GB", "GD", "GE", "GF", "GG", "GH", "GI", "GL", "GM", "GN", "GP", "GQ", "GR", "GS", "GT",
		"GU", "GW", "GY",
		"HK", "HM", "HN", "HR", "HT", "HU",
		"ID", "IE", "IL", "IM", "IN", "IO", "IQ", "IR", "IS", "IT",
		"JE", "JM", "JO", "JP",
		"KE", "KG", "KH", "KI", "KM", "KN", "KP", "KR", "KW", "KY", "KZ",
		"LA", "LB", "LC", "LI", "LK", "LR", "LS", "LT", "LU", "LV", "LY",
		"MA", "MC", "MD", "ME", "MF", "MG", "MH", "MK", "ML", "MM", "MN", "MO", "MP", "MQ", "MR", "MS",
		"MT", "MU", "MV", "MW", "MX", "MY", "MZ",
		"NA", "NC", "NE", "NF", "NG", "NI", "NL", "NO", "NP", "NR", "NU", "NZ",
		"OM",
		"PA", "PE", "PF", "PG", "PH", "PK", "PL", "PM", "PN", "PR", "PS", "PT", "PW", "PY",
		"QA",
		"RE", "RO", "RS", "RU", "RW",
		"SA", "SB", "SC", "SD", "SE", "SG", "SH", "SI", "SJ", "SK", "SL", "SM", "SN", "SO", "SR", "SS",
		"ST", "SV", "SX", "SY", "SZ",
		"TC", "TD", "TF", "TG", "TH", "TJ", "TK", "TL", "TM", "TN", "TO", "TR", "TT", "TV", "TW", "TZ",
		"UA", "UG", "UM", "US", "UY", "UZ",
		"VA", "VC", "VE", "VG", "VI", "VN", "VU",
		"WF", "WS",
		"XK", "XZ",
		"YE", "YT",
		"ZA", "ZM", "ZW",
		"ZZ",
	},
	Continent: {
		"AFRICA", "ANTARCTICA", "ASIA", "OCEANIA", "EUROPE", "NORTH_AMERICA", "SOUTH_AMERICA",
	},
	GbifRegion: {
		"AFRICA", "ASIA", "EUROPE", "LATIN_AMERICA", "NORTH_AMERICA", "OCEANIA", "ANTARCTICA",
	},
	BasisOfRecord: {
		"PRESERVED_SPECIMEN", "FOSSIL_SPECIMEN", "LIVING_SPECIMEN", "OBSERVATION",
		"HUMAN_OBSERVATION", "MACHINE_OBSERVATION", "MATERIAL_SAMPLE", "MATERIAL_CITATION",
		"OCCURRENCE",
	},
	OccurrenceStatus: {"PRESENT", "ABSENT"},
	License:          {"CC0_1_0", "CC_BY_4_0", "CC_BY_NC_4_0", "UNSPECIFIED", "UNSUPPORTED"},
	MediaType:        {"StillImage", "MovingImage", "Sound"},
	DownloadFormat: {
		"DWCA", "SIMPLE_CSV", "SPECIES_LIST", "SIMPLE_PARQUET", "SIMPLE_AVRO", "BIONOMIA",
	},
	SpeciesResultType: {
		"verbatim", "name", "parents", "children", "related", "synonyms", "combinations",
		"descriptions", "distributions", "media", "references", "speciesProfiles",
		"vernacularNames", "typeSpecimens",
	},
	InventoryType: {
		"basisOfRecord", "countries", "datasets", "installationCount",
		"publishingCountries", "year", "schema",
	},
}
