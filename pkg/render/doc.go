// Package render draws a laid-out map to static images.
//
// [SVG] and [PNG] paint a [Scene] the way a panel shows it: containers
// outlined with a header or, when collapsed, filled with their fitted
// label, leaves as labelled boxes and connectors as orthogonal arrows.
// Node view state decides visibility, so apply the viewport detail level
// before drawing.
//
// [DOT] exports the map with pinned positions for Graphviz and
// [GraphvizSVG] renders such a document with neato. [ToPDF] converts any
// SVG through rsvg-convert.
package render
