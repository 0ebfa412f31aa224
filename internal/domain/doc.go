// Package domain models the values that flow through a disdrometer L0
// conversion run.
//
// # Stations
//
// A station is one instrument deployment inside a field campaign. Its
// descriptor lives in <raw_dir>/metadata/<station_name>.yml and names the
// sensor model and the adapter that parses its raw logs:
//
//	station_name: PLATO_01
//	campaign_name: EPFL_ROOF_2008
//	data_source: EPFL
//	sensor_name: OTT_Parsivel
//	reader: EPFL/EPFL_ROOF_2008
//
// Raw files live in <raw_dir>/data/<station_name>/.
//
// # Tables
//
// Adapters return a [Table]: string cells with adapter-chosen column names.
// Nothing is typed at this level. Typing, NA normalization and the drop of
// unknown columns happen in the standards package.
//
// # Lifecycle
//
// Each station moves through
//
//	discovered → parsed → validated → tabular_written → gridded_written → done
//
// and any error moves it to failed, which is absorbing. Every transition is
// published as a [StationEvent].
//
// # Errors
//
// Failures are classified by [ErrorKind] into configuration, schema_violation,
// already_exists, io, canceled and internal. [PartialDataError] is the only
// soft kind: it is reported but never fails a station.
package domain
