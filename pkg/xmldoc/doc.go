// Package xmldoc reads and writes the XML documents a REST client saves
// requests (.rcq) and responses (.rcs) as.
//
// Both documents share a root element carrying the format version:
//
//	<rest-client version="3.0">
//	  <request>
//	    <http-version>1.1</http-version>
//	    <method>POST</method>
//	    <URL>https://api.example.com/users</URL>
//	    <headers>
//	      <header key="Accept" value="application/json"/>
//	    </headers>
//	    <body content-type="application/json" charset="UTF-8">eyJhIjoxfQ==</body>
//	  </request>
//	</rest-client>
//
// Bodies and passwords are stored base64 encoded so arbitrary bytes survive
// the round trip. Codec adapts the package functions to the document codec
// interface the archive package consumes.
package xmldoc
