package catalog

// Species is the field catalog for taxa.
var Species = newCatalog(KindSpecies, []Field{
	{"kingdom", String},
	{"phylum", String},
	{"class", String},
	{"order", String},
	{"family", String},
	{"genus", String},
	{"species", String},
	{"key", Int},
	{"usageKey", Int},
	{"acceptedUsageKey", Int},
	{"nubKey", Int},
	{"nameKey", Int},
	{"taxonID", String},
	{"sourceTaxonKey", Int},
	{"kingdomKey", Int},
	{"phylumKey", Int},
	{"classKey", Int},
	{"orderKey", Int},
	{"familyKey", Int},
	{"genusKey", Int},
	{"speciesKey", Int},
	{"datasetKey", String},
	{"constituentKey", String},
	{"scientificName", String},
	{"canonicalName", String},
	{"vernacularName", String},
	{"parentKey", Int},
	{"parent", String},
	{"basionymKey", Int},
	{"basionym", String},
	{"authorship", String},
	{"nameType", String},
	{"rank", String},
	{"origin", String},
	{"taxonomicStatus", String},
	{"status", String},
	{"matchType", String},
	{"confidence", Int},
	{"nomenclaturalStatus", StringList},
	{"remarks", String},
	{"publishedIn", String},
	{"numDescendants", Int},
	{"lastCrawled", String},
	{"lastInterpreted", String},
	{"issues", StringList},
	{"synonym", Bool},
})

// Occurrence is the field catalog for observation records. It covers the
// commonly returned interpreted fields, not the full Darwin Core term set.
var Occurrence = newCatalog(KindOccurrence, []Field{
	{"key", Int},
	{"datasetKey", String},
	{"publishingOrgKey", String},
	{"installationKey", String},
	{"publishingCountry", String},
	{"protocol", String},
	{"lastCrawled", String},
	{"lastParsed", String},
	{"crawlId", Int},
	{"basisOfRecord", String},
	{"occurrenceStatus", String},
	{"individualCount", Int},
	{"taxonKey", Int},
	{"kingdomKey", Int},
	{"phylumKey", Int},
	{"classKey", Int},
	{"orderKey", Int},
	{"familyKey", Int},
	{"genusKey", Int},
	{"speciesKey", Int},
	{"acceptedTaxonKey", Int},
	{"scientificName", String},
	{"acceptedScientificName", String},
	{"kingdom", String},
	{"phylum", String},
	{"class", String},
	{"order", String},
	{"family", String},
	{"genus", String},
	{"species", String},
	{"genericName", String},
	{"specificEpithet", String},
	{"taxonRank", String},
	{"taxonomicStatus", String},
	{"iucnRedListCategory", String},
	{"decimalLongitude", Float},
	{"decimalLatitude", Float},
	{"coordinateUncertaintyInMeters", Float},
	{"elevation", Float},
	{"depth", Float},
	{"continent", String},
	{"stateProvince", String},
	{"country", String},
	{"countryCode", String},
	{"locality", String},
	{"gadm", String},
	{"year", Int},
	{"month", Int},
	{"day", Int},
	{"eventDate", String},
	{"modified", String},
	{"lastInterpreted", String},
	{"license", String},
	{"recordedBy", String},
	{"identifiedBy", String},
	{"institutionCode", String},
	{"collectionCode", String},
	{"catalogNumber", String},
	{"occurrenceID", String},
	{"gbifID", String},
	{"hasCoordinate", Bool},
	{"hasGeospatialIssues", Bool},
	{"issues", StringList},
	{"mediaType", StringList},
})
